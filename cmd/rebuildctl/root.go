// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for rebuildctl.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"rebuildctl/internal/ngconfig"
	"rebuildctl/internal/process"
)

// Build-time variables set via ldflags.
var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

var (
	// verbose is the repeatable -v flag's count, saturating at 7 (§6).
	verbose int

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))
	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	loadedConfig *ngconfig.NgConfig
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rebuildctl",
	Short: "Declarative-configuration rebuild orchestrator",
	Long: titleStyle.Render("rebuildctl") + subtitleStyle.Render(" - orchestrates OS, Home, and Darwin rebuilds") + `

rebuildctl drives the full rebuild workflow for declarative
configurations: pre-flight checks, building, diffing against the
currently active generation, optional confirmation, activation, and
generation cleanup.

` + subtitleStyle.Render("Quick Start:") + `
  rebuildctl os switch            Rebuild and activate the system config
  rebuildctl home switch          Rebuild and activate a user profile
  rebuildctl darwin build         Build without activating
  rebuildctl os switch --dry      Preview without activating

` + subtitleStyle.Render("Examples:") + `
  rebuildctl os switch --ask -H host-a
  rebuildctl os switch --full --out-link ./result
  rebuildctl home switch --clean`,
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(); it only needs to happen
// once to rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initRootConfig)

	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (repeatable, saturates at 7)")

	rootCmd.AddCommand(newPlatformCommand(osStrategyDescriptor))
	rootCmd.AddCommand(newPlatformCommand(homeStrategyDescriptor))
	rootCmd.AddCommand(newPlatformCommand(darwinStrategyDescriptor))
	rootCmd.AddCommand(newCleanCommand())
	rootCmd.AddCommand(newSearchCommand())
	rootCmd.AddCommand(newCompletionCommand())
	rootCmd.AddCommand(newInfoCommand())
}

// initRootConfig loads NgConfig once at startup (§3, §7: "malformed file
// -> startup failure at config load"). A missing file is not an error;
// it yields defaults.
func initRootConfig() {
	cfg, err := ngconfig.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, warningStyle.Render("Error: ")+fmt.Sprintf("failed to load configuration: %v", err))
		os.Exit(1)
	}
	loadedConfig = cfg

	if envVerbosity := os.Getenv("REBUILDCTL_VERBOSITY"); envVerbosity != "" && verbose == 0 {
		if n, err := parseVerbosityEnv(envVerbosity); err == nil {
			verbose = n
		}
	}
	if verbose > process.MaxVerbosity {
		verbose = process.MaxVerbosity
	}
	if verbose > 0 {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
}

func parseVerbosityEnv(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
