// SPDX-License-Identifier: MPL-2.0

// Package workflow implements the Workflow Engine and per-platform
// Strategies (C7): the 12-step rebuild algorithm described in spec §4.7,
// driven by a Strategy implementation for OS, Home, or Darwin.
package workflow

import (
	"rebuildctl/internal/diagnostic"
	"rebuildctl/internal/external"
	"rebuildctl/internal/ngconfig"
	"rebuildctl/internal/target"
	"rebuildctl/internal/workflow/mode"
)

// CommonRebuildArgs holds the normalized command flags consumed by the
// workflow (§3).
type CommonRebuildArgs struct {
	SkipPreflight   bool
	StrictLint      bool
	MediumChecks    bool
	FullChecks      bool
	DryRun          bool
	AskConfirmation bool
	NoDiffMonitor   bool
	OutLink         string
	CleanAfter      bool
	ExtraBuildArgs  []string

	Target *target.Target

	// Hostname overrides the identity used in toplevel-target (OS/Darwin).
	Hostname string
	// Specialisation selects a specialisation branch; empty means none.
	Specialisation string
	// NoSpecialisation disables specialisation resolution entirely, even
	// if one would otherwise be inferred.
	NoSpecialisation bool
	// BypassRootCheck allows the OS strategy to run as root.
	BypassRootCheck bool
}

// FlakeUpdateArgs holds the optional flake-input-update request (§3,
// §4.7 step 3). A nil pointer on OperationContext means "no update
// requested".
type FlakeUpdateArgs struct {
	// Inputs, when non-empty, updates only the named inputs; empty means
	// update all inputs.
	Inputs []string
}

// OperationContext is the per-invocation, read-only bundle every
// Strategy and engine step reads from (§3). It is constructed once at
// the start of a rebuild invocation and never shared across goroutines.
type OperationContext struct {
	Args        *CommonRebuildArgs
	FlakeUpdate *FlakeUpdateArgs
	Verbosity   int
	External    *external.Interface
	Config      *ngconfig.NgConfig
	Reporter    *diagnostic.Reporter
	Mode        mode.Activation
}

// IsActivationProducing reports whether m results in an activation step
// (everything except BuildOnly, per §4.7's repeated "activation-producing
// mode" gate).
func IsActivationProducing(m mode.Activation) bool {
	return m != mode.BuildOnly
}
