package cli

import (
	"github.com/spf13/cobra"

	"github.com/clearlens/resolve/internal/infrastructure/database/postgres"
)

// NewMigrateCmd creates the migrate command with up and down subcommands.
// Migrations also run automatically before a non-dry run; this command exists
// for operators who manage schema changes separately from resolution runs.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if err := postgres.RunMigrations(cliCtx.Config.Database); err != nil {
				return err
			}
			cliCtx.Logger.Info("migrations applied")
			return nil
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if err := postgres.RollbackMigrations(cliCtx.Config.Database, steps); err != nil {
				return err
			}
			cliCtx.Logger.Info("migrations rolled back")
			return nil
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(upCmd)
	cmd.AddCommand(downCmd)
	return cmd
}
