// SPDX-License-Identifier: MPL-2.0

// Package mode defines ActivationMode, split out from internal/workflow
// so that internal/ngconfig (which references it in auto_clean.on_success_for)
// does not need to import the full workflow engine package.
package mode

import "fmt"

// Activation is the closed enumeration of activation modes (§3). Distinct
// Strategies reject some modes (e.g. Home supports only Switch/Build).
type Activation int

const (
	// Switch activates the new configuration immediately and makes it
	// the boot default.
	Switch Activation = iota
	// Boot makes the new configuration the boot default without
	// activating it immediately.
	Boot
	// Test activates the new configuration immediately without making
	// it the boot default.
	Test
	// BuildOnly builds without activating or changing the boot default.
	BuildOnly
)

func (a Activation) String() string {
	switch a {
	case Switch:
		return "switch"
	case Boot:
		return "boot"
	case Test:
		return "test"
	case BuildOnly:
		return "build"
	default:
		return "unknown"
	}
}

// ParseActivation parses the lowercase name back into an Activation,
// the inverse of String, used by ngconfig to read the
// auto_clean.on_success_for list.
func ParseActivation(s string) (Activation, error) {
	switch s {
	case "switch":
		return Switch, nil
	case "boot":
		return Boot, nil
	case "test":
		return Test, nil
	case "build":
		return BuildOnly, nil
	default:
		return 0, fmt.Errorf("unknown activation mode %q", s)
	}
}
