// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"context"
	"log/slog"
	"os"

	"rebuildctl/internal/process"
	"rebuildctl/internal/target"
	"rebuildctl/internal/workflow/mode"
)

// DarwinStrategy targets a nix-darwin system configuration
// (darwinConfigurations.<hostname>). macOS's darwin-rebuild shares
// NixOS's module-system shape, so the toplevel grammar is identical to
// OSStrategy's; only activation and elevation policy differ (Open
// Question Decision #1, DESIGN.md: sudo is required for activation —
// linking /run/current-system and similar — but not for build/eval).
type DarwinStrategy struct {
	Runner           *process.Runner
	Hostname         string
	Specialisation   string
	NoSpecialisation bool
}

func (s *DarwinStrategy) Name() string { return "darwin" }

func (s *DarwinStrategy) PreRebuildHook(ctx context.Context, args *CommonRebuildArgs) error {
	return nil
}

func (s *DarwinStrategy) ToplevelTarget(t *target.Target) *target.Target {
	if t.HasAttrPath() {
		return t
	}
	identity := resolveHostname(s.Hostname)
	segs := append([]string{"darwinConfigurations", identity}, buildToplevelSegments(s.Specialisation, s.NoSpecialisation)...)
	return t.AppendAttrPath(segs...)
}

func (s *DarwinStrategy) CurrentProfilePath(ctx context.Context, args *CommonRebuildArgs) (string, error) {
	const path = "/run/current-system"
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return path, nil
}

// Activate elevates only the activation step itself, not build/eval —
// matching darwin-rebuild's own behavior of requiring root only to
// relink /run/current-system.
func (s *DarwinStrategy) Activate(ctx context.Context, args *CommonRebuildArgs, builtStorePath string, m mode.Activation, dryRun bool) error {
	action := activationAction(m)
	if dryRun {
		slog.Info("darwin: dry-run, would activate", "action", action, "store-path", builtStorePath)
		return nil
	}

	script := builtStorePath + "/sw/bin/darwin-rebuild-activate"
	cmd := elevate(true, process.New(script, action))
	outcome := s.Runner.Inherit(ctx, cmd)
	if !outcome.Ok() {
		return outcome.Error()
	}
	return nil
}

func (s *DarwinStrategy) PostRebuildHook(ctx context.Context, args *CommonRebuildArgs) error {
	return nil
}

func (s *DarwinStrategy) MainProfilePathForCleanup(args *CommonRebuildArgs) string {
	return "/nix/var/nix/profiles/system"
}

func (s *DarwinStrategy) SupportsMode(m mode.Activation) bool {
	return m != mode.Test // darwin-rebuild has no "test" activation concept
}

func (s *DarwinStrategy) AllowedModes() []mode.Activation {
	return []mode.Activation{mode.Switch, mode.Boot, mode.BuildOnly}
}
