// SPDX-License-Identifier: MPL-2.0

// Package preflight implements the Pre-Flight Framework (C6): an ordered
// sequence of checks run before any build or activation step, each
// reporting through the Diagnostic Reporter on failure.
package preflight

import (
	"context"
	"log/slog"

	"rebuildctl/internal/diagnostic"
	"rebuildctl/internal/external"
	"rebuildctl/internal/target"
)

// Status is the closed CheckStatus enumeration (§3).
type Status int

const (
	// Passed leaves the aggregate result unchanged.
	Passed Status = iota
	// PassedWithWarnings degrades the aggregate to "warnings" unless a
	// later check upgrades it to critical.
	PassedWithWarnings
	// FailedCritical halts the sequence and aborts the workflow.
	FailedCritical
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "passed"
	case PassedWithWarnings:
		return "passed with warnings"
	case FailedCritical:
		return "failed"
	default:
		return "unknown"
	}
}

// StrategyView is the narrow slice of a Workflow Strategy the Eval and
// Dry-Build checks need. Defined here, on the consumer side, rather than
// importing internal/workflow, to avoid a Strategy<->Pre-Flight import
// cycle (internal/workflow depends on internal/preflight to run checks).
type StrategyView interface {
	ToplevelTarget(t *target.Target) *target.Target
}

// RunContext bundles everything a Check needs, standing in for the
// "context, strategy, platform_args" triple §4.6 names.
type RunContext struct {
	Ctx       context.Context
	WorkDir   string
	Target    *target.Target
	Strategy  StrategyView
	External  *external.Interface
	Analyzer  Analyzer
	Reporter  *diagnostic.Reporter
	Verbosity int

	// Gating flags, mirroring the relevant CommonRebuildArgs fields.
	StrictLint   bool
	MediumChecks bool
	FullChecks   bool
}

// Analyzer is the narrow slice of *analyzer.Analyzer the parse check
// needs, kept as an interface here for the same import-direction reason
// as StrategyView (internal/analyzer has no reason to import
// internal/preflight, but defining the interface at the call site keeps
// the dependency arrow pointing one way only).
type Analyzer interface {
	RegisterAndParse(path, text string) (int, []diagnostic.Diagnostic)
}

// Check is a single pre-flight check (§4.6).
type Check interface {
	Name() string
	Run(rc RunContext) Status
}

// Framework runs a registered, ordered sequence of Checks and aggregates
// their statuses per §4.6's execution policy.
type Framework struct {
	checks []Check
}

// New constructs a Framework with the given checks in execution order.
func New(checks ...Check) *Framework {
	return &Framework{checks: checks}
}

// Result is the outcome of running the full sequence.
type Result struct {
	Aggregate Status
	// Aborted is true when a check returned FailedCritical, halting the
	// remaining sequence.
	Aborted bool
	// AbortedAt names the check that triggered the abort, if any.
	AbortedAt string
}

// Run executes every registered check in order unless skipPreflight is
// set, in which case the whole sequence is bypassed. Checks run sequentially, never in
// parallel, because they share the Analyzer and the Reporter (§4.6).
func (f *Framework) Run(rc RunContext, skipPreflight bool) Result {
	if skipPreflight {
		slog.Info("pre-flight: skipped (skip-preflight set)")
		return Result{Aggregate: Passed}
	}

	aggregate := Passed
	for _, check := range f.checks {
		status := f.runOne(check, rc)
		switch status {
		case FailedCritical:
			return Result{Aggregate: FailedCritical, Aborted: true, AbortedAt: check.Name()}
		case PassedWithWarnings:
			if aggregate == Passed {
				aggregate = PassedWithWarnings
			}
		}
	}
	return Result{Aggregate: aggregate}
}

// runOne recovers from a panicking check and treats it as FailedCritical,
// matching §4.6: "any uncaught error within a check is treated as
// critical and reported through C5."
func (f *Framework) runOne(check Check, rc RunContext) (status Status) {
	defer func() {
		if r := recover(); r != nil {
			rc.Reporter.ReportProcessFailure(check.Name(), "internal error", "", nil)
			status = FailedCritical
		}
	}()
	slog.Debug("pre-flight: running check", "check", check.Name())
	return check.Run(rc)
}
