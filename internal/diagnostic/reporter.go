// SPDX-License-Identifier: MPL-2.0

package diagnostic

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"golang.org/x/exp/slices"
)

// Color palette and reusable styles, following the teacher's
// cmd/invowk/styles.go card-rendering convention: bold headers, muted
// labels/values, italic hints.
var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorError   = lipgloss.Color("#EF4444")
	colorWarning = lipgloss.Color("#F59E0B")
	colorInfo    = lipgloss.Color("#3B82F6")
)

func severityColor(s Severity) lipgloss.Color {
	switch s {
	case Error:
		return colorError
	case Warning:
		return colorWarning
	case Info, Hint:
		return colorInfo
	default:
		return colorMuted
	}
}

// recommendation maps each Kind to the brief, fixed advice §4.5 step 4
// specifies. Other carries no recommendation.
func recommendation(d Diagnostic) string {
	switch d.Kind {
	case SyntaxError:
		return "Check for a missing semicolon, unbalanced braces/parens, or an unterminated string."
	case UndefinedVariable:
		return fmt.Sprintf("%q is not in scope here — check for a typo or a missing binding/import.", d.Name)
	case UnusedBinding:
		return fmt.Sprintf("%q is never used — remove it, or prefix it with an underscore to mark it intentional.", d.Name)
	default:
		return ""
	}
}

// Reporter renders Diagnostics and raw process failures to an error
// stream (§4.5). Color and box-drawing are suppressed automatically when
// the stream is not a terminal.
type Reporter struct {
	out      io.Writer
	color    bool
	jsonMode bool
}

// New constructs a Reporter writing to out. Color is auto-detected from
// whether out is a terminal; NewWithColor overrides that.
func New(out io.Writer) *Reporter {
	return &Reporter{out: out, color: isTerminal(out)}
}

// NewWithColor constructs a Reporter with an explicit color override,
// useful for tests and for honoring a user's --no-color flag.
func NewWithColor(out io.Writer, color bool) *Reporter {
	return &Reporter{out: out, color: color}
}

// WithJSON switches the Reporter to machine-readable mode: Report emits
// one JSON object per line instead of the colored terminal rendering,
// for CI wrappers that consume check results without scraping text.
// This is additive to §4.5's rendering, not a replacement for it.
func (r *Reporter) WithJSON(enabled bool) *Reporter {
	return &Reporter{out: r.out, color: r.color, jsonMode: enabled}
}

// jsonDiagnostic is the one-line-per-diagnostic machine-readable shape.
type jsonDiagnostic struct {
	Stage          string `json:"stage"`
	Severity       string `json:"severity"`
	File           string `json:"file"`
	Start          int    `json:"start"`
	End            int    `json:"end"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation,omitempty"`
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *Reporter) style(s lipgloss.Style) lipgloss.Style {
	if !r.color {
		return lipgloss.NewStyle()
	}
	return s
}

// Report renders stage-labeled diagnostics against their source text,
// following §4.5 steps 1-4. text supplies the registered source for each
// diagnostic's File, keyed by the diagnostic's File path (ParseCheck,
// the in-tree caller, re-reads the file from disk).
func (r *Reporter) Report(stage string, diags []Diagnostic, text func(path string) (string, bool)) {
	ordered := append([]Diagnostic(nil), diags...)
	slices.SortStableFunc(ordered, func(a, b Diagnostic) int { return int(a.Severity) - int(b.Severity) })

	if r.jsonMode {
		r.reportJSON(stage, ordered)
		return
	}

	header := r.style(lipgloss.NewStyle().Bold(true).Foreground(colorPrimary))

	for _, d := range ordered {
		sevStyle := r.style(lipgloss.NewStyle().Bold(true).Foreground(severityColor(d.Severity)))

		fmt.Fprintf(r.out, "%s %s\n", header.Render("["+stage+"]"), sevStyle.Render(strings.ToUpper(d.Severity.String())))
		fmt.Fprintf(r.out, "  %s", d.File)

		src, ok := text(d.File)
		if ok {
			line, col, endLine, endCol := byteRangeToLineCol(src, d.Range)
			if line == endLine {
				fmt.Fprintf(r.out, ":%d:%d\n", line, col)
			} else {
				fmt.Fprintf(r.out, ":%d:%d-%d:%d\n", line, col, endLine, endCol)
			}
			fmt.Fprintln(r.out, "")
			fmt.Fprint(r.out, renderExcerpt(src, d.Range, line))
		} else {
			fmt.Fprintln(r.out)
		}

		fmt.Fprintf(r.out, "  %s\n", d.Message)
		if rec := recommendation(d); rec != "" {
			fmt.Fprintf(r.out, "  %s\n", r.renderHint(rec))
		}
		fmt.Fprintln(r.out)
	}
}

// renderHint runs the fixed-advice body through glamour so it reads as
// formatted markdown (teacher convention, internal/tui/format.go),
// falling back to a plain italic line if the renderer can't be built.
func (r *Reporter) renderHint(rec string) string {
	if !r.color {
		return "hint: " + rec
	}
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		hint := lipgloss.NewStyle().Italic(true).Foreground(colorMuted)
		return hint.Render("hint: " + rec)
	}
	out, err := renderer.Render("hint: " + rec)
	if err != nil {
		return "hint: " + rec
	}
	return strings.TrimRight(out, "\n")
}

// reportJSON emits one JSON object per diagnostic (the --json
// supplemented mode), independent of the colored rendering above.
func (r *Reporter) reportJSON(stage string, diags []Diagnostic) {
	enc := json.NewEncoder(r.out)
	for _, d := range diags {
		_ = enc.Encode(jsonDiagnostic{
			Stage:          stage,
			Severity:       d.Severity.String(),
			File:           d.File,
			Start:          d.Range.Start,
			End:            d.Range.End,
			Message:        d.Message,
			Recommendation: recommendation(d),
		})
	}
}

// byteRangeToLineCol converts a half-open byte Range into 1-based
// line/column positions. A zero-width range (used for "after end of
// file") yields identical start/end positions (§3).
func byteRangeToLineCol(src string, rng Range) (startLine, startCol, endLine, endCol int) {
	startLine, startCol = posAt(src, rng.Start)
	endLine, endCol = posAt(src, rng.End)
	return
}

func posAt(src string, offset int) (line, col int) {
	if offset > len(src) {
		offset = len(src)
	}
	line = 1
	lastNL := -1
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			lastNL = i
		}
	}
	col = offset - lastNL
	return
}

// renderExcerpt prints the affected line(s) plus one line of context
// above and below, with the byte range underlined by caret markers
// (§4.5 step 3).
func renderExcerpt(src string, rng Range, startLine int) string {
	lines := strings.Split(src, "\n")
	lo := startLine - 2 // one line of context above, 0-based
	if lo < 0 {
		lo = 0
	}
	_, _, endLine, _ := byteRangeToLineCol(src, rng)
	hi := endLine // one line of context below (0-based exclusive upper bound after +1)
	if hi >= len(lines) {
		hi = len(lines) - 1
	}

	var sb strings.Builder
	for i := lo; i <= hi; i++ {
		lineNo := i + 1
		if i < 0 || i >= len(lines) {
			continue
		}
		fmt.Fprintf(&sb, "  %4d | %s\n", lineNo, lines[i])
		if lineNo == startLine {
			sb.WriteString(caretLine(lines[i], rng, lineNo, src))
		}
	}
	return sb.String()
}

// caretLine builds the "       | ^^^^" underline beneath the offending
// line. For a zero-width range, a single caret marks the insertion point.
func caretLine(line string, rng Range, lineNo int, src string) string {
	lineStartOffset := offsetOfLineStart(src, lineNo)
	startCol := rng.Start - lineStartOffset
	endCol := rng.End - lineStartOffset
	if endCol > len(line) {
		endCol = len(line)
	}
	if startCol < 0 {
		startCol = 0
	}
	width := endCol - startCol
	if width < 1 {
		width = 1
	}
	return fmt.Sprintf("       | %s%s\n", strings.Repeat(" ", startCol), strings.Repeat("^", width))
}

func offsetOfLineStart(src string, lineNo int) int {
	if lineNo <= 1 {
		return 0
	}
	seen := 1
	for i, c := range src {
		if c == '\n' {
			seen++
			if seen == lineNo {
				return i + 1
			}
		}
	}
	return len(src)
}

// ReportProcessFailure renders a bordered failure card for a stage where
// no structured Diagnostic exists — only raw process output (§4.5,
// "report-process-failure"). detail, when non-empty, is appended as a
// body below the reason (e.g. a fetched build log).
func (r *Reporter) ReportProcessFailure(stage, reason, detail string, recommendations []string) {
	border := r.style(lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorError).
		Padding(0, 1))

	stageStyle := r.style(lipgloss.NewStyle().Bold(true).Foreground(colorPrimary))
	reasonStyle := r.style(lipgloss.NewStyle().Bold(true).Foreground(colorError))

	var body strings.Builder
	fmt.Fprintf(&body, "%s\n", stageStyle.Render(stage+" failed"))
	fmt.Fprintf(&body, "%s\n", reasonStyle.Render(reason))

	if detail != "" {
		body.WriteString("\n")
		body.WriteString(detail)
		body.WriteString("\n")
	}

	if len(recommendations) > 0 {
		body.WriteString("\n")
		for _, rec := range recommendations {
			fmt.Fprintf(&body, "  • %s\n", rec)
		}
	}

	fmt.Fprintln(r.out, border.Render(strings.TrimRight(body.String(), "\n")))
}
