package cli

import (
	"github.com/spf13/cobra"

	"github.com/clearlens/resolve/internal/infrastructure/database/redis"
	"github.com/clearlens/resolve/pkg/errors"
)

// NewReportCmd creates the report command.  It prints the quality report of
// the most recent resolution run from the Redis cache, letting operators
// inspect run health without re-resolving or touching the database.
func NewReportCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the quality report of the latest resolution run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runReport(cmd, cliCtx, outputPath)
		},
	}

	cmd.Flags().StringVar(&outputPath, "out", "", "write the report to this file instead of stdout")
	return cmd
}

func runReport(cmd *cobra.Command, cliCtx *CLIContext, outputPath string) error {
	ctx := cmd.Context()
	cfg := cliCtx.Config

	if cfg.Redis.Addr == "" {
		return errors.New(errors.CodeConfigInvalid, "report requires redis: no cached reports without it")
	}

	client, err := redis.NewClient(ctx, cfg.Redis, cliCtx.Logger)
	if err != nil {
		return err
	}
	defer client.Close()

	report, err := redis.NewQualityCache(client, 0).Latest(ctx)
	if err != nil {
		if errors.IsNotFound(err) {
			return errors.NotFound("no resolution run has been recorded yet")
		}
		return err
	}

	return writeJSON(outputPath, report)
}
