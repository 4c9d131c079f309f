// SPDX-License-Identifier: MPL-2.0

package target

import (
	"errors"
	"testing"
)

func TestParse_FlakeWithAttrPath(t *testing.T) {
	t.Parallel()

	tgt, err := Parse("github:foo/bar#nixosConfigurations.host-a", false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tgt.Kind != Flake {
		t.Fatalf("expected Flake, got %v", tgt.Kind)
	}
	if tgt.Reference != "github:foo/bar" {
		t.Fatalf("unexpected reference: %q", tgt.Reference)
	}
	want := []string{"nixosConfigurations", "host-a"}
	assertSegs(t, tgt.AttrPath, want)
}

func TestParse_NoAttrPath(t *testing.T) {
	t.Parallel()

	tgt, err := Parse(".", false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tgt.HasAttrPath() {
		t.Fatalf("expected no attribute path, got %v", tgt.AttrPath)
	}
}

func TestParse_StorePath(t *testing.T) {
	t.Parallel()

	tgt, err := Parse("/nix/store/aaaa-system", false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tgt.Kind != Store {
		t.Fatalf("expected Store, got %v", tgt.Kind)
	}
	if tgt.HasAttrPath() {
		t.Fatalf("store targets never carry an attribute path")
	}
}

func TestParse_FileAndExpr(t *testing.T) {
	t.Parallel()

	f, err := Parse("./flake.nix#foo", true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Kind != File || f.Reference != "./flake.nix" {
		t.Fatalf("unexpected File target: %+v", f)
	}
	assertSegs(t, f.AttrPath, []string{"foo"})

	e, err := Parse("{ foo = 1; }#foo", false, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Kind != Expression || e.Reference != "{ foo = 1; }" {
		t.Fatalf("unexpected Expression target: %+v", e)
	}
}

func TestParse_FileAndExprMutuallyExclusive(t *testing.T) {
	t.Parallel()

	if _, err := Parse(".", true, true); err == nil {
		t.Fatal("expected error when both --file and --expr are set")
	}
}

func TestParseAttrPath_Empty(t *testing.T) {
	t.Parallel()

	segs, err := ParseAttrPath("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 0 {
		t.Fatalf("expected zero segments, got %v", segs)
	}
}

func TestParseAttrPath_QuotedSegmentWithDot(t *testing.T) {
	t.Parallel()

	segs, err := ParseAttrPath(`"foo.bar".baz`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSegs(t, segs, []string{"foo.bar", "baz"})
}

func TestParseAttrPath_QuotedEscapes(t *testing.T) {
	t.Parallel()

	segs, err := ParseAttrPath(`"she said \"hi\""`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSegs(t, segs, []string{`she said "hi"`})
}

func TestParseAttrPath_TrailingDotFails(t *testing.T) {
	t.Parallel()

	_, err := ParseAttrPath("foo.")
	if err == nil {
		t.Fatal("expected error for trailing dot")
	}
	var syntaxErr *AttrPathSyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected *AttrPathSyntaxError, got %T", err)
	}
	if !errors.Is(err, ErrAttrPathSyntax) {
		t.Fatalf("expected errors.Is(err, ErrAttrPathSyntax)")
	}
}

func TestParseAttrPath_UnterminatedQuoteFails(t *testing.T) {
	t.Parallel()

	_, err := ParseAttrPath(`"unterminated`)
	if err == nil {
		t.Fatal("expected error for unterminated quoted segment")
	}
}

func TestParseAttrPath_LeadingDigitFails(t *testing.T) {
	t.Parallel()

	_, err := ParseAttrPath("9abc")
	if err == nil {
		t.Fatal("expected error for identifier starting with a digit")
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []*Target{
		{Kind: Flake, Reference: "github:foo/bar"},
		{Kind: Flake, Reference: ".", AttrPath: []string{"nixosConfigurations", "host-a"}},
		{Kind: Flake, Reference: ".", AttrPath: []string{"foo.bar", "baz"}},
		{Kind: Flake, Reference: ".", AttrPath: []string{"9weird"}},
		{Kind: File, Reference: "./flake.nix", AttrPath: []string{"foo"}},
		{Kind: Store, Reference: "/nix/store/aaaa-system"},
	}

	for _, want := range cases {
		serialized := Serialize(want)
		got, err := Parse(serialized, want.Kind == File, want.Kind == Expression)
		if err != nil {
			t.Fatalf("round-trip parse of %q failed: %v", serialized, err)
		}
		if got.Kind != want.Kind || got.Reference != want.Reference {
			t.Fatalf("round-trip mismatch: got %+v, want %+v", got, want)
		}
		assertSegs(t, got.AttrPath, want.AttrPath)
	}
}

func TestSerializeAttrPath_QuotesDottedAndWeirdSegments(t *testing.T) {
	t.Parallel()

	got := SerializeAttrPath([]string{"plain", "has.dot", "9weird", "ok-dash", "ok'tick"})
	want := `plain."has.dot"."9weird".ok-dash.ok'tick`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func assertSegs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected segments %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected segments %v, got %v", want, got)
		}
	}
}
