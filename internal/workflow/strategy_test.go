// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"testing"

	"rebuildctl/internal/target"
	"rebuildctl/internal/workflow/mode"
)

func TestOSStrategy_ToplevelTarget_AppendsCanonicalSuffix(t *testing.T) {
	t.Parallel()

	s := &OSStrategy{Hostname: "myhost"}
	in := &target.Target{Kind: target.Flake, Reference: "."}
	out := s.ToplevelTarget(in)

	want := []string{"nixosConfigurations", "myhost", "config", "system", "build", "toplevel"}
	assertAttrPath(t, out.AttrPath, want)
}

func TestOSStrategy_ToplevelTarget_RespectsUserAttrPath(t *testing.T) {
	t.Parallel()

	s := &OSStrategy{Hostname: "myhost"}
	in := &target.Target{Kind: target.Flake, Reference: ".", AttrPath: []string{"custom"}}
	out := s.ToplevelTarget(in)

	assertAttrPath(t, out.AttrPath, []string{"custom"})
}

func TestOSStrategy_ToplevelTarget_SpecialisationInsertion(t *testing.T) {
	t.Parallel()

	s := &OSStrategy{Hostname: "myhost", Specialisation: "gaming"}
	in := &target.Target{Kind: target.Flake, Reference: "."}
	out := s.ToplevelTarget(in)

	want := []string{"nixosConfigurations", "myhost", "config", "specialisation", "gaming", "configuration", "system", "build", "toplevel"}
	assertAttrPath(t, out.AttrPath, want)
}

func TestOSStrategy_ToplevelTarget_NoSpecialisationOverride(t *testing.T) {
	t.Parallel()

	s := &OSStrategy{Hostname: "myhost", Specialisation: "gaming", NoSpecialisation: true}
	in := &target.Target{Kind: target.Flake, Reference: "."}
	out := s.ToplevelTarget(in)

	want := []string{"nixosConfigurations", "myhost", "config", "system", "build", "toplevel"}
	assertAttrPath(t, out.AttrPath, want)
}

func TestHomeStrategy_SupportsMode(t *testing.T) {
	t.Parallel()

	s := &HomeStrategy{}
	if !s.SupportsMode(mode.Switch) || !s.SupportsMode(mode.BuildOnly) {
		t.Fatal("expected Home to support Switch and BuildOnly")
	}
	if s.SupportsMode(mode.Boot) || s.SupportsMode(mode.Test) {
		t.Fatal("expected Home to reject Boot and Test")
	}
}

func TestDarwinStrategy_SupportsMode(t *testing.T) {
	t.Parallel()

	s := &DarwinStrategy{}
	if s.SupportsMode(mode.Test) {
		t.Fatal("expected Darwin to reject Test (no such activation concept)")
	}
	if !s.SupportsMode(mode.Switch) {
		t.Fatal("expected Darwin to support Switch")
	}
}

func assertAttrPath(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected attr path %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected attr path %v, got %v", want, got)
		}
	}
}
