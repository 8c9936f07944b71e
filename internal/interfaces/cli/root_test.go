package cli

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
)

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	if cmd == nil {
		t.Fatal("NewRootCommand should return a command")
	}
	if cmd.Use != "resolve" {
		t.Errorf("expected Use='resolve', got %q", cmd.Use)
	}
	if cmd.Short == "" {
		t.Error("Short should not be empty")
	}
	if cmd.Long == "" {
		t.Error("Long should not be empty")
	}
}

func TestNewRootCommand_SubcommandRegistration(t *testing.T) {
	cmd := NewRootCommand()

	expected := []string{"run", "export", "report", "migrate"}
	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestNewRootCommand_GlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, flag := range []string{"config", "log-level"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag %q should exist", flag)
		}
	}
}

func TestRunCmd_RequiresInput(t *testing.T) {
	cmd := NewRunCmd()
	if cmd.Flags().Lookup("input") == nil {
		t.Fatal("run should have an --input flag")
	}
	if cmd.Flags().Lookup("dry-run") == nil {
		t.Fatal("run should have a --dry-run flag")
	}
}

func TestExportCmd_Flags(t *testing.T) {
	cmd := NewExportCmd()
	for _, flag := range []string{"input", "out", "dry-run"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("export should have a --%s flag", flag)
		}
	}
}

func TestGetCLIContext_Uninitialized(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	if _, err := GetCLIContext(cmd); err == nil {
		t.Error("expected an error when the CLI context was never initialized")
	}
}

func TestGetCLIContext_RoundTrip(t *testing.T) {
	cliCtx := &CLIContext{}
	cmd := &cobra.Command{}
	cmd.SetContext(context.WithValue(context.Background(), cliContextKey{}, cliCtx))

	got, err := GetCLIContext(cmd)
	if err != nil {
		t.Fatalf("GetCLIContext failed: %v", err)
	}
	if got != cliCtx {
		t.Error("expected the stored CLI context back")
	}
}

func TestRootCommand_HasVersion(t *testing.T) {
	cmd := NewRootCommand()
	if cmd.Version == "" {
		t.Error("root command should carry version information")
	}
}
