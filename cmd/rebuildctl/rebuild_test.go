// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"testing"

	"rebuildctl/internal/workflow/mode"
)

func TestDescribeActivation_CoversEveryMode(t *testing.T) {
	t.Parallel()

	for _, m := range []mode.Activation{mode.Switch, mode.Boot, mode.Test, mode.BuildOnly} {
		if describeActivation(m) == "" {
			t.Fatalf("expected non-empty description for mode %v", m)
		}
	}
}

func TestDescriptorFor_KnownPlatforms(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"os", "home", "darwin"} {
		d, err := descriptorFor(name)
		if err != nil {
			t.Fatalf("unexpected error for platform %q: %v", name, err)
		}
		if d.use != name {
			t.Fatalf("expected descriptor.use %q, got %q", name, d.use)
		}
	}
}

func TestDescriptorFor_UnknownPlatform(t *testing.T) {
	t.Parallel()

	if _, err := descriptorFor("bsd"); err == nil {
		t.Fatal("expected an error for an unknown platform")
	}
}

func TestNewPlatformCommand_RegistersOneSubcommandPerMode(t *testing.T) {
	t.Parallel()

	c := newPlatformCommand(homeStrategyDescriptor)
	if len(c.Commands()) != len(homeStrategyDescriptor.allowedModes) {
		t.Fatalf("expected %d subcommands, got %d", len(homeStrategyDescriptor.allowedModes), len(c.Commands()))
	}
}
