package cli

import (
	"github.com/spf13/cobra"

	"github.com/clearlens/resolve/internal/application/export"
	"github.com/clearlens/resolve/internal/application/resolution"
	"github.com/clearlens/resolve/internal/domain/pseudonym"
)

// NewExportCmd creates the export command.  It resolves the batch and then
// produces the de-identified outputs: entity rows, record-to-ID resolutions
// and anonymized records in which every identifying value is replaced by a
// pseudonym token.
func NewExportCmd() *cobra.Command {
	var (
		inputPath  string
		outputPath string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Produce a de-identified export for a batch of records",
		Long: `Resolve the batch and build the de-identified export.

The export carries no raw names, emails, phone numbers or account numbers;
every identifying field is replaced by the stable pseudonym token for its
entity. Running export twice over the same records yields identical tokens.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runExport(cmd, cliCtx, inputPath, outputPath, dryRun)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the records file (JSON array or JSON Lines) (required)")
	cmd.Flags().StringVar(&outputPath, "out", "", "write the export to this file instead of stdout")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve in memory only: tokens and IDs are not durable")
	cmd.MarkFlagRequired("input")

	return cmd
}

func runExport(cmd *cobra.Command, cliCtx *CLIContext, inputPath, outputPath string, dryRun bool) error {
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

	resolver := resolution.NewService(
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
		result, runErr = resolver.Run(ctx, records)
		return runErr
	})
	if err != nil {
		return err
	}

	exporter := export.NewService(pseudonym.NewMapper(b.Store), cliCtx.Logger, cliCtx.Metrics)
	out, err := exporter.Build(ctx, records, result.Entities, result.Assignments)
	if err != nil {
		return err
	}

	return writeJSON(outputPath, out)
}
