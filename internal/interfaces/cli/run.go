package cli

import (
	"github.com/spf13/cobra"

	"github.com/clearlens/resolve/internal/application/resolution"
	"github.com/clearlens/resolve/internal/infrastructure/monitoring/logging"
)

// NewRunCmd creates the run command.  It executes the full resolution
// pipeline over a batch of raw identity records: normalization, candidate
// generation, pair matching, clustering and Business ID assignment.
func NewRunCmd() *cobra.Command {
	var (
		inputPath  string
		outputPath string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve a batch of raw identity records",
		Long: `Run the resolution pipeline over a batch of raw identity records and persist
the resulting Business ID assignments.

The input file holds records as a JSON array or as JSON Lines. The --out file
receives the full resolution result, including canonical names; it is an
internal artifact, not a de-identified export. Use "resolve export" for
outputs that leave the platform.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runResolution(cmd, cliCtx, inputPath, outputPath, dryRun)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the records file (JSON array or JSON Lines) (required)")
	cmd.Flags().StringVar(&outputPath, "out", "", "write the full resolution result to this file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve in memory only: no database, no events, IDs not durable")
	cmd.MarkFlagRequired("input")

	return cmd
}

func runResolution(cmd *cobra.Command, cliCtx *CLIContext, inputPath, outputPath string, dryRun bool) error {
	ctx := cmd.Context()

	records, err := LoadRecords(inputPath)
	if err != nil {
		return err
	}

	b, err := buildBackends(ctx, cliCtx, dryRun)
	if err != nil {
		return err
	}
	defer b.Close(cliCtx.Logger)

	svc := resolution.NewService(
		cliCtx.Config.Matching,
		cliCtx.Config.Blocking,
		b.Registry,
		b.Publisher,
		cliCtx.Logger,
		cliCtx.Metrics,
	)

	var result *resolution.Result
	err = b.withRunLock(ctx, cliCtx.Logger, func() error {
		var runErr error
		result, runErr = svc.Run(ctx, records)
		return runErr
	})
	if err != nil {
		return err
	}

	if b.Cache != nil {
		if err := b.Cache.Put(ctx, result.Report); err != nil {
			// The run itself succeeded; a stale cached report is tolerable.
			cliCtx.Logger.Warn("failed to cache quality report", logging.Err(err))
		}
	}

	if outputPath != "" {
		if err := writeJSON(outputPath, result); err != nil {
			return err
		}
	}

	// The report carries only counts and rates, never identity values, so it
	// is safe to print regardless of mode.
	return writeJSON("", result.Report)
}
