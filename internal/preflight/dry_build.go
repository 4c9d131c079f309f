// SPDX-License-Identifier: MPL-2.0

package preflight

// DryBuildCheck calls dry-run-build on the toplevel target, gated on
// full-checks (§4.6 check 5).
type DryBuildCheck struct{}

func (c *DryBuildCheck) Name() string { return "Dry-Build Check" }

func (c *DryBuildCheck) Run(rc RunContext) Status {
	if !rc.FullChecks {
		return Passed
	}

	toplevel := rc.Strategy.ToplevelTarget(rc.Target)
	if err := rc.External.DryRunBuild(rc.Ctx, toplevel, rc.Verbosity); err != nil {
		rc.Reporter.ReportProcessFailure(c.Name(), "dry-run build failed", err.Error(), nil)
		return FailedCritical
	}
	return Passed
}
