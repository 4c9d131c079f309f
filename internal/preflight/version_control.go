// SPDX-License-Identifier: MPL-2.0

package preflight

import (
	"path/filepath"
	"strings"

	"rebuildctl/internal/process"
)

// ConfigFileExtension is the source-file extension the Analyzer and the
// version-control/parse checks recognize as a configuration-language
// file (§4.6 calls it "the configuration-language extension").
const ConfigFileExtension = ".nix"

// LockfileName names the companion lockfile the version-control check
// also watches for.
const LockfileName = "flake.lock"

// VersionControlCheck warns (never fails) when untracked configuration
// files or lockfiles exist in the working directory — they may be
// invisible to the build (§4.6 check 1).
type VersionControlCheck struct {
	runner *process.Runner
}

// NewVersionControlCheck constructs the check.
func NewVersionControlCheck(runner *process.Runner) *VersionControlCheck {
	return &VersionControlCheck{runner: runner}
}

func (c *VersionControlCheck) Name() string { return "Version Control" }

func (c *VersionControlCheck) Run(rc RunContext) Status {
	cmd := process.New("git", "rev-parse", "--is-inside-work-tree").WithDir(rc.WorkDir)
	if !c.runner.Capture(rc.Ctx, cmd).Ok() {
		// Not a git repository: nothing to warn about.
		return Passed
	}

	untracked := c.runner.Capture(rc.Ctx, process.New("git", "ls-files", "--others", "--exclude-standard").WithDir(rc.WorkDir))
	if !untracked.Ok() {
		// Non-fatal: the check degrades rather than aborting the workflow
		// over a transient git failure.
		return Passed
	}

	var flagged []string
	for _, line := range strings.Split(strings.TrimRight(untracked.Stdout, "\n"), "\n") {
		if line == "" {
			continue
		}
		base := filepath.Base(line)
		if strings.HasSuffix(line, ConfigFileExtension) || base == LockfileName {
			flagged = append(flagged, line)
		}
	}

	if len(flagged) == 0 {
		return Passed
	}

	rc.Reporter.ReportProcessFailure(
		c.Name(),
		"untracked configuration files may be invisible to the build",
		strings.Join(flagged, "\n"),
		[]string{"run `git add` on these files, or the build may silently ignore them"},
	)
	return PassedWithWarnings
}
