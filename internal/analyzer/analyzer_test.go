// SPDX-License-Identifier: MPL-2.0

package analyzer

import "testing"

func TestRegisterAndParse_NoErrors(t *testing.T) {
	t.Parallel()

	a := New()
	id, diags := a.RegisterAndParse("./config.nix", `{ foo = 1; bar = "baz"; }`)
	if len(diags) != 0 {
		t.Fatalf("expected no syntax diagnostics, got %v", diags)
	}
	if id <= 0 {
		t.Fatalf("expected positive file id, got %d", id)
	}
}

func TestRegisterAndParse_MissingExpression(t *testing.T) {
	t.Parallel()

	a := New()
	_, diags := a.RegisterAndParse("./bad.nix", "{ foo = ;\n}\n")
	if len(diags) == 0 {
		t.Fatal("expected at least one syntax diagnostic")
	}
	if diags[0].Message == "" {
		t.Fatal("expected a non-empty message")
	}
}

func TestRegisterAndParse_UnterminatedString(t *testing.T) {
	t.Parallel()

	a := New()
	_, diags := a.RegisterAndParse("./bad.nix", `{ foo = "unterminated; }`)
	if len(diags) == 0 {
		t.Fatal("expected a syntax diagnostic for the unterminated string")
	}
}

func TestRegisterAndParse_RecoversAfterError(t *testing.T) {
	t.Parallel()

	a := New()
	// The first binding is malformed but the second is well-formed; the
	// tolerant parser should still surface both a diagnostic and keep
	// parsing rather than aborting at the first error.
	_, diags := a.RegisterAndParse("./bad.nix", "{ foo = ; bar = 2; }")
	if len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic from the malformed binding, got %d: %v", len(diags), diags)
	}
}

func TestRegisterAndParse_ReplacesOnReRegister(t *testing.T) {
	t.Parallel()

	a := New()
	id1, _ := a.RegisterAndParse("./config.nix", `{ a = 1; }`)
	id2, diags := a.RegisterAndParse("./config.nix", `{ a = ; }`)
	if id1 != id2 {
		t.Fatalf("expected stable file id across re-registration, got %d then %d", id1, id2)
	}
	if len(diags) == 0 {
		t.Fatal("expected diagnostics from the updated text")
	}
}

func TestText_RoundTrips(t *testing.T) {
	t.Parallel()

	a := New()
	const src = `{ a = 1; }`
	id, _ := a.RegisterAndParse("./config.nix", src)
	got, ok := a.Text(id)
	if !ok || got != src {
		t.Fatalf("expected text %q, got %q (ok=%v)", src, got, ok)
	}
}

func TestSemanticDiagnostics_EmptyWithoutCapability(t *testing.T) {
	t.Parallel()

	a := New()
	id, _ := a.RegisterAndParse("./config.nix", `let x = 1; in y`)
	if diags := a.SemanticDiagnostics(id); len(diags) != 0 {
		t.Fatalf("expected no semantic diagnostics in default build, got %v", diags)
	}
}

func TestParseLet_NestedRecovery(t *testing.T) {
	t.Parallel()

	a := New()
	_, diags := a.RegisterAndParse("./config.nix", `let a = 1 in a`)
	if len(diags) == 0 {
		t.Fatal("expected a diagnostic for the missing ';' before 'in'")
	}
}
