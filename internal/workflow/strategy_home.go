// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"

	"rebuildctl/internal/process"
	"rebuildctl/internal/target"
	"rebuildctl/internal/workflow/mode"
)

// HomeStrategy targets a per-user home-manager configuration
// (homeConfigurations.<user>@<host>). It never elevates (Open Question
// Decision #1, DESIGN.md: the profile lives entirely under the user's
// home directory) and supports only Switch and BuildOnly (§3).
type HomeStrategy struct {
	Runner   *process.Runner
	Hostname string
}

func (s *HomeStrategy) Name() string { return "home" }

func (s *HomeStrategy) PreRebuildHook(ctx context.Context, args *CommonRebuildArgs) error {
	return nil
}

// ToplevelTarget appends homeConfigurations.<user>@<host>.activationPackage
// — home-manager's own toplevel attribute, distinct from the
// config.system.build.toplevel grammar OS/Darwin use, since a home
// profile is not a full system closure.
func (s *HomeStrategy) ToplevelTarget(t *target.Target) *target.Target {
	if t.HasAttrPath() {
		return t
	}
	identity := homeIdentity(s.Hostname)
	return t.AppendAttrPath("homeConfigurations", identity, "activationPackage")
}

func homeIdentity(hostnameOverride string) string {
	username := "unknown"
	if u, err := user.Current(); err == nil && u.Username != "" {
		username = u.Username
	}
	return fmt.Sprintf("%s@%s", username, resolveHostname(hostnameOverride))
}

func (s *HomeStrategy) CurrentProfilePath(ctx context.Context, args *CommonRebuildArgs) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(home, ".local", "state", "nix", "profiles", "home-manager")
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return path, nil
}

// Activate runs the built activation package's script directly, with no
// elevation — a per-user profile never needs root.
func (s *HomeStrategy) Activate(ctx context.Context, args *CommonRebuildArgs, builtStorePath string, m mode.Activation, dryRun bool) error {
	if dryRun {
		slog.Info("home: dry-run, would activate", "store-path", builtStorePath)
		return nil
	}

	script := builtStorePath + "/activate"
	outcome := s.Runner.Inherit(ctx, process.New(script))
	if !outcome.Ok() {
		return outcome.Error()
	}
	return nil
}

func (s *HomeStrategy) PostRebuildHook(ctx context.Context, args *CommonRebuildArgs) error {
	return nil
}

func (s *HomeStrategy) MainProfilePathForCleanup(args *CommonRebuildArgs) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "nix", "profiles", "home-manager")
}

func (s *HomeStrategy) SupportsMode(m mode.Activation) bool {
	return m == mode.Switch || m == mode.BuildOnly
}

func (s *HomeStrategy) AllowedModes() []mode.Activation {
	return []mode.Activation{mode.Switch, mode.BuildOnly}
}
