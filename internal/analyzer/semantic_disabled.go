// SPDX-License-Identifier: MPL-2.0

//go:build !nix_semantic

package analyzer

import "rebuildctl/internal/diagnostic"

// semanticDiagnostics is the no-op variant built by default: semantic
// analysis (name resolution, unused-binding detection) is a capability
// that must be compiled in via the nix_semantic build tag, since it
// depends on evaluator knowledge this module doesn't ship by default
// (§4.4).
func semanticDiagnostics(path string, root *node) []diagnostic.Diagnostic {
	return nil
}
