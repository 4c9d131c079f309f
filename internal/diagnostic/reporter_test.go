// SPDX-License-Identifier: MPL-2.0

package diagnostic

import (
	"bytes"
	"strings"
	"testing"
)

func TestReport_RendersFileAndMessage(t *testing.T) {
	t.Parallel()

	src := "{ foo = ;\n}\n"
	diags := []Diagnostic{
		{
			Severity: Error,
			File:     "./bad.nix",
			Range:    Range{Start: 8, End: 9},
			Message:  "expected expression",
			Kind:     SyntaxError,
		},
	}

	var buf bytes.Buffer
	r := NewWithColor(&buf, false)
	r.Report("Parse Check", diags, func(path string) (string, bool) {
		if path == "./bad.nix" {
			return src, true
		}
		return "", false
	})

	out := buf.String()
	if !strings.Contains(out, "./bad.nix") {
		t.Fatalf("expected file path in output, got %q", out)
	}
	if !strings.Contains(out, "expected expression") {
		t.Fatalf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "^") {
		t.Fatalf("expected caret underline in output, got %q", out)
	}
}

func TestReport_ZeroWidthRange(t *testing.T) {
	t.Parallel()

	src := "{ foo = 1; }"
	diags := []Diagnostic{
		{
			Severity: Error,
			File:     "a.nix",
			Range:    Range{Start: len(src), End: len(src)},
			Message:  "unexpected end of file",
			Kind:     SyntaxError,
		},
	}

	var buf bytes.Buffer
	r := NewWithColor(&buf, false)
	r.Report("Parse Check", diags, func(path string) (string, bool) { return src, true })

	if !strings.Contains(buf.String(), "unexpected end of file") {
		t.Fatalf("expected message rendered, got %q", buf.String())
	}
}

func TestReport_UndefinedVariableRecommendation(t *testing.T) {
	t.Parallel()

	src := "x"
	diags := []Diagnostic{
		{Severity: Error, File: "a.nix", Range: Range{0, 1}, Message: "undefined variable", Kind: UndefinedVariable, Name: "x"},
	}

	var buf bytes.Buffer
	r := NewWithColor(&buf, false)
	r.Report("Eval Check", diags, func(string) (string, bool) { return src, true })

	if !strings.Contains(buf.String(), `"x"`) {
		t.Fatalf("expected recommendation naming the variable, got %q", buf.String())
	}
}

func TestReportProcessFailure_IncludesDetailAndRecommendations(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewWithColor(&buf, false)
	r.ReportProcessFailure("Build", "builder for '/nix/store/xyz.drv' failed", "build log contents here", []string{"check the derivation's build inputs"})

	out := buf.String()
	if !strings.Contains(out, "Build failed") {
		t.Fatalf("expected stage label, got %q", out)
	}
	if !strings.Contains(out, "build log contents here") {
		t.Fatalf("expected detail body, got %q", out)
	}
	if !strings.Contains(out, "check the derivation's build inputs") {
		t.Fatalf("expected recommendation bullet, got %q", out)
	}
}

func TestReport_JSONModeEmitsOneObjectPerLine(t *testing.T) {
	t.Parallel()

	diags := []Diagnostic{
		{Severity: Warning, File: "a.nix", Range: Range{0, 1}, Message: "untracked file"},
		{Severity: Error, File: "b.nix", Range: Range{2, 3}, Message: "expected expression", Kind: SyntaxError},
	}

	var buf bytes.Buffer
	r := NewWithColor(&buf, false).WithJSON(true)
	r.Report("Parse Check", diags, func(string) (string, bool) { return "", false })

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSON lines, got %d: %q", len(lines), buf.String())
	}
	// Errors sort before warnings (most severe first).
	if !strings.Contains(lines[0], `"severity":"error"`) {
		t.Fatalf("expected error diagnostic first, got %q", lines[0])
	}
	if !strings.Contains(lines[0], `"file":"b.nix"`) {
		t.Fatalf("expected b.nix in first line, got %q", lines[0])
	}
}

func TestPosAt(t *testing.T) {
	t.Parallel()

	src := "abc\ndef\nghi"
	line, col := posAt(src, 5) // 'e' in "def"
	if line != 2 || col != 2 {
		t.Fatalf("expected line 2 col 2, got line %d col %d", line, col)
	}
}
