// SPDX-License-Identifier: MPL-2.0

package preflight

import (
	"rebuildctl/internal/process"
)

// lintTools is the fixed preference order of external formatter tools
// the Lint check looks for (§4.6 check 3). It runs only the first one
// available on PATH; if that tool fails, the remaining tools are not
// tried. nixfmt is the project's own reference
// formatter; alejandra and nixpkgs-fmt are the two long-standing
// community alternatives, tried in roughly their adoption order.
var lintTools = []string{"nixfmt", "alejandra", "nixpkgs-fmt"}

// LintCheck formats every discovered configuration file in place with
// the first available tool, degrading to a warning or failing
// critically depending on strictness (§4.6 check 3).
type LintCheck struct {
	runner *process.Runner
}

// NewLintCheck constructs the check.
func NewLintCheck(runner *process.Runner) *LintCheck {
	return &LintCheck{runner: runner}
}

func (c *LintCheck) Name() string { return "Lint Check" }

func (c *LintCheck) Run(rc RunContext) Status {
	strict := rc.StrictLint || rc.MediumChecks || rc.FullChecks

	files, err := discoverConfigFiles(rc.WorkDir)
	if err != nil {
		rc.Reporter.ReportProcessFailure(c.Name(), "failed to walk working directory", err.Error(), nil)
		return FailedCritical
	}
	if len(files) == 0 {
		return Passed
	}

	tool, ok := c.firstAvailable(rc)
	if !ok {
		return c.fail(rc, strict, "no formatter tool found on PATH", "tried: "+joinComma(lintTools))
	}

	args := append([]string{}, files...)
	outcome := c.runner.Capture(rc.Ctx, process.AppendVerbosity(process.New(tool, args...), rc.Verbosity))
	if !outcome.Ok() {
		return c.fail(rc, strict, tool+" reported a formatting failure", outcome.Stderr)
	}
	return Passed
}

// firstAvailable probes each candidate tool with a no-op invocation
// (version flag) to find one actually installed, without depending on
// os/exec.LookPath directly from this package — Runner is the sole
// legal caller of os/exec (internal/process's own invariant).
func (c *LintCheck) firstAvailable(rc RunContext) (string, bool) {
	for _, tool := range lintTools {
		if c.runner.Capture(rc.Ctx, process.New(tool, "--version")).Kind != process.SpawnFailed {
			return tool, true
		}
	}
	return "", false
}

func (c *LintCheck) fail(rc RunContext, strict bool, reason, detail string) Status {
	rc.Reporter.ReportProcessFailure(c.Name(), reason, detail, []string{"install one of: " + joinComma(lintTools)})
	if strict {
		return FailedCritical
	}
	return PassedWithWarnings
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
