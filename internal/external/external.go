// SPDX-License-Identifier: MPL-2.0

// Package external implements the External Interface (C3): typed,
// tool-specific wrappers over the Process Runner (C1) for every
// invocation the Workflow Engine and Pre-Flight checks need. No package
// outside internal/process is allowed to call os/exec directly. The
// builder, evaluator and store tools are invoked from here; preflight,
// workflow and cmd/rebuildctl also run their own commands through
// internal/process.
package external

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"rebuildctl/internal/process"
	"rebuildctl/internal/target"
)

// Interface wraps a Runner with the nix-tool-specific semantics of §4.3.
// A single Interface is shared across a rebuild invocation.
type Interface struct {
	runner *process.Runner
	// builder is the program name for the primary build/eval tool,
	// normally "nix"; overridable so tests can point it at a stub.
	builder string
	// monitor, when non-empty, is the log-monitoring tool piped build
	// output through when use-diff-monitor is requested (e.g. "nom").
	monitor string
}

// New constructs an Interface using the default "nix" builder and no
// diff-monitor tool configured.
func New(runner *process.Runner) *Interface {
	return &Interface{runner: runner, builder: "nix"}
}

// WithMonitor returns a copy of i that pipes build output through
// monitor (e.g. "nom") when BuildOptions.UseDiffMonitor is set.
func (i *Interface) WithMonitor(monitor string) *Interface {
	cp := *i
	cp.monitor = monitor
	return &cp
}

// derivationFailurePattern matches nix's own "builder for '<path>' failed"
// stderr line, used to extract the failed derivations for the Reporter
// (§4.3).
var derivationFailurePattern = regexp.MustCompile(`error: builder for '([^']+)' failed`)

// BuildOptions configures a call to Build.
type BuildOptions struct {
	OutLink        string
	ExtraArgs      []string
	UseDiffMonitor bool
	Verbosity      int
}

// BuildFailedError reports a build-time failure, carrying the derivation
// paths C3 could extract from stderr for the Reporter to fetch logs for
// (§4.3).
type BuildFailedError struct {
	Stderr                    string
	DetectedFailedDerivations []string
}

func (e *BuildFailedError) Error() string { return "build failed" }

// Build runs "nix build" (or the configured builder) against target,
// returning the resolved store path on success. When opts.UseDiffMonitor
// is set, builder output is piped through the configured monitor tool
// (run-piped), with "--log-format internal-json" appended so the monitor
// receives the structured event stream it expects (§4.3: "an appropriate
// log-format flag"); otherwise it is run-inherit so the user sees the
// builder's own progress output live. On success the store path is
// resolved from the out-link symlink; on failure stderr is scanned for
// failed derivation paths (§4.3) — Runner.Piped merges the builder's own
// stderr into the returned Outcome precisely so this scan sees it, not
// just the monitor's framing.
func (i *Interface) Build(ctx context.Context, t *target.Target, opts BuildOptions) (string, error) {
	args := []string{"build", target.Serialize(t), "--out-link", opts.OutLink}
	args = append(args, opts.ExtraArgs...)

	useMonitor := opts.UseDiffMonitor && i.monitor != ""
	if useMonitor {
		args = append(args, "--log-format", "internal-json")
	}
	cmd := process.AppendVerbosity(process.New(i.builder, args...), opts.Verbosity)

	var outcome *process.Outcome
	if useMonitor {
		monitorCmd := process.New(i.monitor, "--json")
		outcome = i.runner.Piped(ctx, cmd, monitorCmd)
	} else {
		outcome = i.runner.Inherit(ctx, cmd)
	}

	if outcome.Ok() {
		storePath, err := os.Readlink(opts.OutLink)
		if err != nil {
			return "", fmt.Errorf("resolving out-link %q: %w", opts.OutLink, err)
		}
		return storePath, nil
	}

	stderr := outcome.Stderr
	matches := derivationFailurePattern.FindAllStringSubmatch(stderr, -1)
	derivations := make([]string, 0, len(matches))
	for _, m := range matches {
		derivations = append(derivations, m[1])
	}
	return "", &BuildFailedError{Stderr: stderr, DetectedFailedDerivations: derivations}
}

// EvalFailedError reports a failed evaluate-json call.
type EvalFailedError struct{ Detail string }

func (e *EvalFailedError) Error() string { return "evaluation failed: " + e.Detail }

// EvaluateJSON runs "nix eval --json" against target and parses stdout.
// Uses run-capture since the output is consumed programmatically, not
// shown to the user (§4.3).
func (i *Interface) EvaluateJSON(ctx context.Context, t *target.Target, verbosity int) (any, error) {
	args := []string{"eval", "--json", target.Serialize(t)}
	cmd := process.AppendVerbosity(process.New(i.builder, args...), verbosity)

	outcome := i.runner.Capture(ctx, cmd)
	if !outcome.Ok() {
		return nil, &EvalFailedError{Detail: outcome.Stderr}
	}

	var value any
	if err := json.Unmarshal([]byte(outcome.Stdout), &value); err != nil {
		return nil, &EvalFailedError{Detail: "malformed JSON from evaluator: " + err.Error()}
	}
	return value, nil
}

// FetchBuildLog retrieves the build log for derivationPath, used by the
// Reporter when a build failure is detected (§4.3).
func (i *Interface) FetchBuildLog(ctx context.Context, derivationPath string, verbosity int) (string, error) {
	cmd := process.AppendVerbosity(process.New(i.builder, "log", derivationPath), verbosity)
	outcome := i.runner.Capture(ctx, cmd)
	if !outcome.Ok() {
		return "", outcome.Error()
	}
	return outcome.Stdout, nil
}

// GarbageCollect runs "nix-collect-garbage" (or --dry-run) with
// elevation, since it operates on the shared system store.
func (i *Interface) GarbageCollect(ctx context.Context, dryRun bool, verbosity int) error {
	args := []string{}
	if dryRun {
		args = append(args, "--dry-run")
	}
	cmd := process.AppendVerbosity(process.New("nix-collect-garbage", args...), verbosity)
	cmd = process.Elevate(cmd)
	outcome := i.runner.Inherit(ctx, cmd)
	if !outcome.Ok() {
		return outcome.Error()
	}
	return nil
}

// OptimiseStore runs "nix-store --optimise" (or --dry-run, best-effort
// for tools that don't support it) with elevation.
func (i *Interface) OptimiseStore(ctx context.Context, dryRun bool, verbosity int) error {
	args := []string{"--optimise"}
	if dryRun {
		args = append(args, "--dry-run")
	}
	cmd := process.AppendVerbosity(process.New("nix-store", args...), verbosity)
	cmd = process.Elevate(cmd)
	outcome := i.runner.Inherit(ctx, cmd)
	if !outcome.Ok() {
		return outcome.Error()
	}
	return nil
}

// DryRunBuild runs "nix build --dry-run" against target, used by the
// full-checks pre-flight to validate that the build plan resolves
// without actually building (§4.3, §4.6).
func (i *Interface) DryRunBuild(ctx context.Context, t *target.Target, verbosity int) error {
	args := []string{"build", target.Serialize(t), "--dry-run"}
	cmd := process.AppendVerbosity(process.New(i.builder, args...), verbosity)
	outcome := i.runner.Capture(ctx, cmd)
	if !outcome.Ok() {
		return outcome.Error()
	}
	return nil
}
