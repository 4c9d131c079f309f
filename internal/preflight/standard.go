// SPDX-License-Identifier: MPL-2.0

package preflight

import "rebuildctl/internal/process"

// Standard constructs the Framework with the standard five-check
// sequence in the order §4.6 specifies: version control, parse, lint,
// eval, dry-build.
func Standard(runner *process.Runner) *Framework {
	return New(
		NewVersionControlCheck(runner),
		&ParseCheck{},
		NewLintCheck(runner),
		&EvalCheck{},
		&DryBuildCheck{},
	)
}
