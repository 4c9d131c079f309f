// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"rebuildctl/internal/process"
	"rebuildctl/internal/target"
	"rebuildctl/internal/workflow/mode"
)

// OSStrategy targets a whole-system NixOS configuration
// (nixosConfigurations.<hostname>). Hostname/Specialisation/
// NoSpecialisation are resolved by the caller (CLI flag parsing) and set
// before the strategy is used, since the narrow StrategyView interface
// internal/preflight consumes only takes the Target, not the full args.
type OSStrategy struct {
	Runner           *process.Runner
	Hostname         string
	Specialisation   string
	NoSpecialisation bool
}

func (s *OSStrategy) Name() string { return "os" }

// PreRebuildHook rejects running as root unless explicitly bypassed
// (§4.7, and the CLI's -R/--bypass-root-check flag in §6).
func (s *OSStrategy) PreRebuildHook(ctx context.Context, args *CommonRebuildArgs) error {
	if process.IsRoot() && !args.BypassRootCheck {
		return fmt.Errorf("refusing to run as root; pass --bypass-root-check (-R) if this is intentional")
	}
	return nil
}

// ToplevelTarget implements §4.7's rule: if the user already supplied an
// attribute path, it's used as-is; otherwise the canonical
// nixosConfigurations.<hostname>.config[.specialisation...].system.build.toplevel
// suffix is appended (Open Question Decision #3, DESIGN.md).
func (s *OSStrategy) ToplevelTarget(t *target.Target) *target.Target {
	if t.HasAttrPath() {
		return t
	}
	identity := resolveHostname(s.Hostname)
	segs := append([]string{"nixosConfigurations", identity}, buildToplevelSegments(s.Specialisation, s.NoSpecialisation)...)
	return t.AppendAttrPath(segs...)
}

// buildToplevelSegments returns the ".config[.specialisation.<name>].system.build.toplevel"
// (or "configuration" variant under specialisation) tail shared by the OS
// and Darwin strategies.
func buildToplevelSegments(specialisation string, noSpecialisation bool) []string {
	if specialisation != "" && !noSpecialisation {
		return []string{"config", "specialisation", specialisation, "configuration", "system", "build", "toplevel"}
	}
	return []string{"config", "system", "build", "toplevel"}
}

func resolveHostname(override string) string {
	if override != "" {
		return override
	}
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

func (s *OSStrategy) CurrentProfilePath(ctx context.Context, args *CommonRebuildArgs) (string, error) {
	const path = "/run/current-system"
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return path, nil
}

// Activate runs "switch-to-configuration <action>" from builtStorePath,
// elevated since it touches /run/current-system and bootloader entries.
func (s *OSStrategy) Activate(ctx context.Context, args *CommonRebuildArgs, builtStorePath string, m mode.Activation, dryRun bool) error {
	action := activationAction(m)
	if dryRun {
		slog.Info("os: dry-run, would activate", "action", action, "store-path", builtStorePath)
		return nil
	}

	script := builtStorePath + "/bin/switch-to-configuration"
	cmd := elevate(true, process.New(script, action))
	outcome := s.Runner.Inherit(ctx, cmd)
	if !outcome.Ok() {
		return outcome.Error()
	}
	return nil
}

func activationAction(m mode.Activation) string {
	switch m {
	case mode.Switch:
		return "switch"
	case mode.Boot:
		return "boot"
	case mode.Test:
		return "test"
	default:
		return "dry-activate"
	}
}

func (s *OSStrategy) PostRebuildHook(ctx context.Context, args *CommonRebuildArgs) error { return nil }

func (s *OSStrategy) MainProfilePathForCleanup(args *CommonRebuildArgs) string {
	return "/nix/var/nix/profiles/system"
}

func (s *OSStrategy) SupportsMode(m mode.Activation) bool { return true }

func (s *OSStrategy) AllowedModes() []mode.Activation {
	return []mode.Activation{mode.Switch, mode.Boot, mode.Test, mode.BuildOnly}
}
