// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"context"

	"rebuildctl/internal/process"
	"rebuildctl/internal/target"
	"rebuildctl/internal/workflow/mode"
)

// Strategy is the platform contract §4.7 names: one implementation each
// for OS, Home, and Darwin.
type Strategy interface {
	// Name is the human label used in logs.
	Name() string

	// PreRebuildHook enforces platform preconditions (e.g. the OS
	// strategy rejects running as root unless explicitly bypassed).
	PreRebuildHook(ctx context.Context, args *CommonRebuildArgs) error

	// ToplevelTarget derives the final build target from the user's
	// Target plus the platform-specific attribute-path extension.
	ToplevelTarget(t *target.Target) *target.Target

	// CurrentProfilePath returns the path of the currently active
	// profile for diffing, or "" if none exists yet (e.g. first run).
	CurrentProfilePath(ctx context.Context, args *CommonRebuildArgs) (string, error)

	// Activate runs the platform's activation script against
	// builtStorePath for the given mode. Must itself honor dry-run and
	// elevation policy.
	Activate(ctx context.Context, args *CommonRebuildArgs, builtStorePath string, m mode.Activation, dryRun bool) error

	// PostRebuildHook performs any final platform cleanup/messaging.
	PostRebuildHook(ctx context.Context, args *CommonRebuildArgs) error

	// MainProfilePathForCleanup names the profile family auto-clean
	// should trim generations of.
	MainProfilePathForCleanup(args *CommonRebuildArgs) string

	// SupportsMode reports whether m is valid for this platform (e.g.
	// Home supports only Switch and BuildOnly).
	SupportsMode(m mode.Activation) bool

	// AllowedModes lists every mode SupportsMode accepts, for CLI help
	// text and validation error messages.
	AllowedModes() []mode.Activation
}

// elevate is the shared helper the OS and Darwin Activate
// implementations and generation pruning call through, composing with
// internal/process.Elevate.
// Each strategy decides *whether* to elevate a given command (Open
// Question Decision #1 in DESIGN.md); this just wraps the decision.
func elevate(should bool, cmd *process.Command) *process.Command {
	if !should {
		return cmd
	}
	return process.Elevate(cmd)
}
