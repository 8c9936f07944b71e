package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clearlens/resolve/internal/config"
	"github.com/clearlens/resolve/internal/infrastructure/monitoring/logging"
	"github.com/clearlens/resolve/internal/infrastructure/monitoring/prometheus"
	"github.com/clearlens/resolve/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config  *config.Config
	Logger  logging.Logger
	Metrics *prometheus.AppMetrics
}

// NewRootCommand creates the root cobra command with global flags and all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "resolve",
		Short:   "Identity resolution and anonymization for business records",
		Long:    "resolve links customer, sales and email-contact records that refer to\nthe same real-world business, assigns each linked group a stable Business ID,\nand produces de-identified exports in which every identifying value is\nreplaced by a pseudonym token.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: RESOLVE_* environment variables only)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// persistentPreRun builds the CLIContext and stashes it on the command's
// context so every subcommand can retrieve it.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeConfigInvalid, "failed to initialize logger")
	}

	metrics, err := buildMetrics(cfg, logger)
	if err != nil {
		return err
	}

	cliCtx := &CLIContext{Config: cfg, Logger: logger, Metrics: metrics}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// loadConfig reads the YAML file when a path was given, otherwise falls back
// to RESOLVE_* environment variables alone.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

// buildMetrics returns a registered instrument set, or a no-op set when
// metrics are disabled.  A batch invocation records into the same instruments
// a long-running deployment would scrape.
func buildMetrics(cfg *config.Config, logger logging.Logger) (*prometheus.AppMetrics, error) {
	if !cfg.Metrics.Enabled {
		return prometheus.NewNopMetrics(), nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace: cfg.Metrics.Namespace,
	}, logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigInvalid, "failed to initialize metrics collector")
	}
	return prometheus.NewAppMetrics(collector), nil
}

// GetCLIContext extracts the CLIContext placed by persistentPreRun.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	cliCtx, ok := cmd.Context().Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.Internal("CLI context not initialized")
	}
	return cliCtx, nil
}

// writeJSON marshals v with indentation and writes it to path, or to stdout
// when path is empty.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "failed to marshal output")
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to write output file")
	}
	return nil
}

// Execute runs the root command.  It is the single entry point for
// cmd/resolve.
func Execute() {
	rootCmd := NewRootCommand()
	rootCmd.SetContext(context.Background())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
