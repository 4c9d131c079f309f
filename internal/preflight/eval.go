// SPDX-License-Identifier: MPL-2.0

package preflight

// EvalCheck calls evaluate-json on the toplevel target computed by the
// current strategy, gated on medium-checks or full-checks (§4.6 check 4).
type EvalCheck struct{}

func (c *EvalCheck) Name() string { return "Eval Check" }

func (c *EvalCheck) Run(rc RunContext) Status {
	if !rc.MediumChecks && !rc.FullChecks {
		return Passed
	}

	toplevel := rc.Strategy.ToplevelTarget(rc.Target)
	if _, err := rc.External.EvaluateJSON(rc.Ctx, toplevel, rc.Verbosity); err != nil {
		rc.Reporter.ReportProcessFailure(c.Name(), "evaluation failed", err.Error(), nil)
		return FailedCritical
	}
	return Passed
}
