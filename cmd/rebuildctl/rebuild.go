// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rebuildctl/internal/diagnostic"
	"rebuildctl/internal/external"
	"rebuildctl/internal/process"
	"rebuildctl/internal/target"
	"rebuildctl/internal/workflow"
	"rebuildctl/internal/workflow/mode"
)

// strategyDescriptor wires one platform's subcommand tree (§6: "os",
// "home", "darwin") to its Strategy constructor and supported modes.
type strategyDescriptor struct {
	use          string
	short        string
	allowedModes []mode.Activation
	newStrategy  func(runner *process.Runner, hostname, specialisation string, noSpecialisation bool) workflow.Strategy
}

var osStrategyDescriptor = strategyDescriptor{
	use:          "os",
	short:        "Rebuild the whole system (NixOS-style)",
	allowedModes: []mode.Activation{mode.Switch, mode.Boot, mode.Test, mode.BuildOnly},
	newStrategy: func(runner *process.Runner, hostname, specialisation string, noSpecialisation bool) workflow.Strategy {
		return &workflow.OSStrategy{Runner: runner, Hostname: hostname, Specialisation: specialisation, NoSpecialisation: noSpecialisation}
	},
}

var homeStrategyDescriptor = strategyDescriptor{
	use:          "home",
	short:        "Rebuild the per-user Home profile",
	allowedModes: []mode.Activation{mode.Switch, mode.BuildOnly},
	newStrategy: func(runner *process.Runner, hostname, _ string, _ bool) workflow.Strategy {
		return &workflow.HomeStrategy{Runner: runner, Hostname: hostname}
	},
}

var darwinStrategyDescriptor = strategyDescriptor{
	use:          "darwin",
	short:        "Rebuild a macOS system (nix-darwin-style)",
	allowedModes: []mode.Activation{mode.Switch, mode.Boot, mode.BuildOnly},
	newStrategy: func(runner *process.Runner, hostname, specialisation string, noSpecialisation bool) workflow.Strategy {
		return &workflow.DarwinStrategy{Runner: runner, Hostname: hostname, Specialisation: specialisation, NoSpecialisation: noSpecialisation}
	},
}

// rebuildFlags holds the §6 flag table, shared by every activation-mode
// subcommand (switch/boot/test/build) under a platform command.
type rebuildFlags struct {
	noPreflight      bool
	strictLint       bool
	medium           bool
	full             bool
	dryRun           bool
	ask              bool
	noNom            bool
	outLink          string
	clean            bool
	hostname         string
	specialisation   string
	noSpecialisation bool
	bypassRootCheck  bool
	asFile           bool
	asExpr           bool
}

func (f *rebuildFlags) register(fs *cobra.Command) {
	flags := fs.Flags()
	flags.BoolVar(&f.noPreflight, "no-preflight", false, "skip all pre-flight checks")
	flags.BoolVar(&f.strictLint, "strict-lint", false, "lint failures become critical")
	flags.BoolVar(&f.medium, "medium", false, "add the Eval pre-flight check")
	flags.BoolVar(&f.full, "full", false, "add the Eval and Dry-build pre-flight checks")
	flags.BoolVarP(&f.dryRun, "dry", "n", false, "skip activation; log what would happen")
	flags.BoolVarP(&f.ask, "ask", "a", false, "prompt before activation")
	flags.BoolVar(&f.noNom, "no-nom", false, "bypass the build-output monitor")
	flags.StringVarP(&f.outLink, "out-link", "o", "", "pin the build result at PATH instead of a temp dir")
	flags.BoolVar(&f.clean, "clean", false, "run manual cleanup after success")
	flags.StringVarP(&f.hostname, "hostname", "H", "", "override the identity used in the toplevel target")
	flags.StringVarP(&f.specialisation, "specialisation", "s", "", "select a specialisation branch")
	flags.BoolVarP(&f.noSpecialisation, "no-specialisation", "S", false, "disable specialisation")
	flags.BoolVarP(&f.bypassRootCheck, "bypass-root-check", "R", false, "OS strategy only: allow running as root")
	flags.BoolVar(&f.asFile, "file", false, "treat the target reference as a filesystem path")
	flags.BoolVar(&f.asExpr, "expr", false, "treat the target reference as a literal expression")
}

// newPlatformCommand builds the "rebuildctl <platform>" parent command
// with one subcommand per activation mode the platform supports (§4.7,
// §6).
func newPlatformCommand(d strategyDescriptor) *cobra.Command {
	platformCmd := &cobra.Command{
		Use:   d.use,
		Short: d.short,
	}

	for _, m := range d.allowedModes {
		platformCmd.AddCommand(newActivationCommand(d, m))
	}
	return platformCmd
}

func newActivationCommand(d strategyDescriptor, m mode.Activation) *cobra.Command {
	flags := &rebuildFlags{}
	use := m.String()
	if m == mode.BuildOnly {
		use = "build"
	}

	activationCmd := &cobra.Command{
		Use:   use + " [reference[#attrpath]] [-- extra args]",
		Short: fmt.Sprintf("%s the %s configuration", describeActivation(m), d.use),
		Args:  cobra.ArbitraryArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runRebuild(c, args, d, m, flags)
		},
	}
	flags.register(activationCmd)
	return activationCmd
}

func describeActivation(m mode.Activation) string {
	switch m {
	case mode.Switch:
		return "Build and switch to"
	case mode.Boot:
		return "Build and set as boot default"
	case mode.Test:
		return "Build and test-activate (no boot entry)"
	default:
		return "Build"
	}
}

func runRebuild(c *cobra.Command, positional []string, d strategyDescriptor, m mode.Activation, flags *rebuildFlags) error {
	ctx := c.Context()

	ref := "."
	var extraArgs []string
	before := positional
	if dashIdx := c.ArgsLenAtDash(); dashIdx >= 0 {
		before = positional[:dashIdx]
		extraArgs = positional[dashIdx:]
	}
	if len(before) > 0 {
		ref = before[0]
	}

	t, err := target.Parse(ref, flags.asFile, flags.asExpr)
	if err != nil {
		return fmt.Errorf("parsing target: %w", err)
	}

	args := &workflow.CommonRebuildArgs{
		SkipPreflight:    flags.noPreflight,
		StrictLint:       flags.strictLint,
		MediumChecks:     flags.medium,
		FullChecks:       flags.full,
		DryRun:           flags.dryRun,
		AskConfirmation:  flags.ask,
		NoDiffMonitor:    flags.noNom,
		OutLink:          flags.outLink,
		CleanAfter:       flags.clean,
		ExtraBuildArgs:   extraArgs,
		Target:           t,
		Hostname:         flags.hostname,
		Specialisation:   flags.specialisation,
		NoSpecialisation: flags.noSpecialisation,
		BypassRootCheck:  flags.bypassRootCheck,
	}

	runner := process.NewRunner()
	strategy := d.newStrategy(runner, flags.hostname, flags.specialisation, flags.noSpecialisation)

	ext := newExternalInterface(runner)
	reporter := diagnostic.New(os.Stderr)

	oc := &workflow.OperationContext{
		Args:      args,
		Verbosity: verbose,
		External:  ext,
		Config:    loadedConfig,
		Reporter:  reporter,
		Mode:      m,
	}

	engine := workflow.NewEngine(strategy, runner)
	if err := engine.Run(ctx, oc); err != nil {
		return err
	}
	return nil
}

// newExternalInterface wires the External Interface's build-output
// monitor from REBUILDCTL_MONITOR, defaulting to "nom" (§6: "an
// environment variable may set the build-monitor default").
func newExternalInterface(runner *process.Runner) *external.Interface {
	monitor := os.Getenv("REBUILDCTL_MONITOR")
	if monitor == "" {
		monitor = "nom"
	}
	return external.New(runner).WithMonitor(monitor)
}
