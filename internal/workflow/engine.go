// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"rebuildctl/internal/analyzer"
	"rebuildctl/internal/external"
	"rebuildctl/internal/preflight"
	"rebuildctl/internal/process"
	"rebuildctl/internal/workflow/mode"
)

// diffTool is the external closure-diff tool invoked between build and
// activation (§4.7 step 7). nvd is the long-standing community tool for
// this in the nix ecosystem; its absence degrades to a warning, never a
// fatal error (§4.7, §7).
const diffTool = "nvd"

// Engine runs the 12-step rebuild algorithm of §4.7 for a single
// invocation.
type Engine struct {
	Strategy  Strategy
	Runner    *process.Runner
	Preflight *preflight.Framework
}

// NewEngine constructs an Engine for the given Strategy, wiring the
// standard pre-flight check sequence.
func NewEngine(strategy Strategy, runner *process.Runner) *Engine {
	return &Engine{Strategy: strategy, Runner: runner, Preflight: preflight.Standard(runner)}
}

// Run executes the full algorithm, returning a non-nil error for any
// abort (the CLI layer maps that to a non-zero exit code, §6).
func (e *Engine) Run(ctx context.Context, oc *OperationContext) error {
	args := oc.Args

	// Step 1: pre-rebuild-hook.
	if err := e.Strategy.PreRebuildHook(ctx, args); err != nil {
		return fmt.Errorf("pre-rebuild check failed: %w", err)
	}

	// Step 2: pre-flight sequence. A fresh Analyzer is scoped to this
	// invocation, per §3's ownership rule ("the analyzer's source
	// database" lives for exactly one invocation).
	result := e.Preflight.Run(preflight.RunContext{
		Ctx:          ctx,
		WorkDir:      ".",
		Target:       args.Target,
		Strategy:     e.Strategy,
		External:     oc.External,
		Analyzer:     analyzer.New(),
		Reporter:     oc.Reporter,
		Verbosity:    oc.Verbosity,
		StrictLint:   args.StrictLint,
		MediumChecks: args.MediumChecks,
		FullChecks:   args.FullChecks,
	}, args.SkipPreflight)
	if result.Aborted {
		return fmt.Errorf("pre-flight check %q failed critically", result.AbortedAt)
	}

	// Step 3: flake-input update, if requested.
	if oc.FlakeUpdate != nil {
		if err := e.updateFlakeInputs(ctx, oc); err != nil {
			return fmt.Errorf("updating flake inputs: %w", err)
		}
	}

	// Step 4: compute toplevel target.
	toplevel := e.Strategy.ToplevelTarget(args.Target)

	// Step 5: establish out-link.
	outLink, cleanup, err := e.establishOutLink(args)
	if err != nil {
		return fmt.Errorf("establishing out-link: %w", err)
	}
	defer cleanup()

	// Step 6: build. A BuildOnly dry-run never shells out to the
	// builder at all; it logs a simulated build instead (§4.7 dry-run
	// semantics).
	var storePath string
	if oc.Mode == mode.BuildOnly && args.DryRun {
		slog.Info("workflow: dry-run, simulating build", "target", toplevel)
	} else {
		storePath, err = oc.External.Build(ctx, toplevel, external.BuildOptions{
			OutLink:        outLink,
			ExtraArgs:      args.ExtraBuildArgs,
			UseDiffMonitor: !args.NoDiffMonitor,
			Verbosity:      oc.Verbosity,
		})
		if err != nil {
			e.reportBuildFailure(ctx, oc, err)
			return fmt.Errorf("build failed")
		}
	}

	activationProducing := IsActivationProducing(oc.Mode)

	// Step 7: diff, if activating and not a dry run.
	if activationProducing && !args.DryRun {
		e.runDiff(ctx, oc, storePath, args)
	}

	// Step 8: confirmation.
	if args.AskConfirmation && activationProducing && !args.DryRun {
		ok, err := confirmActivation(
			fmt.Sprintf("Activate %s with mode %s?", e.Strategy.Name(), oc.Mode),
			"Built store path: "+storePath,
		)
		if err != nil {
			return fmt.Errorf("confirmation prompt failed: %w", err)
		}
		if !ok {
			return fmt.Errorf("user rejected the new configuration")
		}
	}

	// Step 9: activate.
	if activationProducing {
		if err := e.Strategy.Activate(ctx, args, storePath, oc.Mode, args.DryRun); err != nil {
			oc.Reporter.ReportProcessFailure(e.Strategy.Name(), "activation failed", err.Error(), nil)
			return fmt.Errorf("activation failed: %w", err)
		}
	}

	// Step 10/11: cleanup.
	if args.CleanAfter {
		e.runManualCleanup(ctx, oc, args)
	} else if oc.Config.AutoClean.Enabled && modeIn(oc.Mode, oc.Config.AutoClean.OnSuccessFor) && !args.DryRun {
		e.runAutoClean(ctx, oc, args)
	}

	// Step 12: post-rebuild-hook.
	if err := e.Strategy.PostRebuildHook(ctx, args); err != nil {
		slog.Warn("workflow: post-rebuild hook failed", "error", err)
	}

	return nil
}

func modeIn(m mode.Activation, set []mode.Activation) bool {
	for _, candidate := range set {
		if candidate == m {
			return true
		}
	}
	return false
}

func (e *Engine) updateFlakeInputs(ctx context.Context, oc *OperationContext) error {
	args := []string{"flake", "update"}
	args = append(args, oc.FlakeUpdate.Inputs...)
	cmd := process.AppendVerbosity(process.New("nix", args...), oc.Verbosity)
	outcome := e.Runner.Inherit(ctx, cmd)
	if !outcome.Ok() {
		return outcome.Error()
	}
	return nil
}

// establishOutLink resolves args.OutLink if set, or allocates a fresh
// temp directory scoped to outlive the whole invocation (§3's ownership
// rule), releasing it on cleanup.
func (e *Engine) establishOutLink(args *CommonRebuildArgs) (path string, cleanup func(), err error) {
	if args.OutLink != "" {
		return args.OutLink, func() {}, nil
	}

	dir, err := os.MkdirTemp("", "rebuildctl-"+uuid.NewString())
	if err != nil {
		return "", nil, err
	}
	return dir + "/result", func() { _ = os.RemoveAll(dir) }, nil
}

func (e *Engine) reportBuildFailure(ctx context.Context, oc *OperationContext, err error) {
	buildErr, ok := err.(*external.BuildFailedError)
	if !ok {
		oc.Reporter.ReportProcessFailure("Build", err.Error(), "", nil)
		return
	}

	var detail string
	for _, drv := range buildErr.DetectedFailedDerivations {
		log, logErr := oc.External.FetchBuildLog(ctx, drv, oc.Verbosity)
		if logErr != nil {
			continue
		}
		detail += "=== " + drv + " ===\n" + log + "\n"
	}
	if detail == "" {
		detail = buildErr.Stderr
	}
	oc.Reporter.ReportProcessFailure("Build", "one or more derivations failed to build", detail, nil)
}

// runDiff invokes the closure-diff tool between the strategy's current
// profile and the newly built store path. Diff failures are warnings,
// never fatal (§4.7 step 7, §7). The new store path is always printed
// first, regardless of whether the diff tool itself later fails (Open
// Question Decision #2, DESIGN.md).
func (e *Engine) runDiff(ctx context.Context, oc *OperationContext, storePath string, args *CommonRebuildArgs) {
	slog.Info("workflow: built store path", "path", storePath)

	current, err := e.Strategy.CurrentProfilePath(ctx, args)
	if err != nil || current == "" {
		return
	}

	outcome := e.Runner.Inherit(ctx, process.New(diffTool, "diff", current, storePath))
	if !outcome.Ok() {
		slog.Warn("workflow: diff tool failed or unavailable", "tool", diffTool, "error", outcome.Error())
	}
}

func (e *Engine) runManualCleanup(ctx context.Context, oc *OperationContext, args *CommonRebuildArgs) {
	if err := oc.External.GarbageCollect(ctx, false, oc.Verbosity); err != nil {
		slog.Warn("workflow: manual garbage-collect failed", "error", err)
	}
	if oc.Config.AutoClean.RunOptimise {
		if err := oc.External.OptimiseStore(ctx, false, oc.Verbosity); err != nil {
			slog.Warn("workflow: manual store-optimise failed", "error", err)
		}
	}
}

// runAutoClean trims the strategy's main profile down to keep_count,
// additionally removing generations older than keep_days, per §4.7
// step 11. Failures are logged as warnings, never fatal.
func (e *Engine) runAutoClean(ctx context.Context, oc *OperationContext, args *CommonRebuildArgs) {
	profilePath := e.Strategy.MainProfilePathForCleanup(args)
	if profilePath == "" {
		return
	}

	gens, err := listGenerations(profilePath)
	if err != nil {
		slog.Warn("workflow: auto-clean failed to list generations", "error", err)
		return
	}

	prune := generationsToPrune(gens, oc.Config.AutoClean.KeepCount, oc.Config.AutoClean.KeepDays)
	needsElevation := e.Strategy.Name() != "home"
	if err := pruneGenerations(ctx, e.Runner, profilePath, prune, needsElevation); err != nil {
		slog.Warn("workflow: auto-clean failed to delete generations", "error", err)
		return
	}

	if oc.Config.AutoClean.RunGC {
		if err := oc.External.GarbageCollect(ctx, false, oc.Verbosity); err != nil {
			slog.Warn("workflow: auto-clean garbage-collect failed", "error", err)
		}
	}
	if oc.Config.AutoClean.RunOptimise {
		if err := oc.External.OptimiseStore(ctx, false, oc.Verbosity); err != nil {
			slog.Warn("workflow: auto-clean store-optimise failed", "error", err)
		}
	}
}
