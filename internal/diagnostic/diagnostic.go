// SPDX-License-Identifier: MPL-2.0

// Package diagnostic implements the Diagnostic Reporter (C5): the shared
// Diagnostic data model, and rendering of diagnostics and raw
// process-failure reports to the user's error stream.
package diagnostic

// Severity classifies how serious a Diagnostic is (§3).
type Severity int

const (
	// Error indicates a problem that should block the workflow.
	Error Severity = iota
	// Warning indicates a problem that should be surfaced but not block.
	Warning
	// Info is informational.
	Info
	// Hint is a low-priority suggestion.
	Hint
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Hint:
		return "hint"
	default:
		return "unknown"
	}
}

// Kind tags the closed set of diagnostic categories §3 names. Producers
// outside the Analyzer (C4) must not mint SyntaxError or the semantic
// kinds; they're reserved to it by convention only, not enforced by the
// type system.
type Kind int

const (
	// SyntaxError indicates a parse failure.
	SyntaxError Kind = iota
	// UndefinedVariable indicates a name-resolution failure; Name holds
	// the offending identifier.
	UndefinedVariable
	// UnusedBinding indicates a binding that is never referenced; Name
	// holds the binding's identifier.
	UnusedBinding
	// Other is the catch-all kind carrying no specific recommendation.
	Other
)

// Range is a half-open byte range [Start, End) into a file's text. A
// zero-width range (Start == End) is valid and used for "after end of
// file" diagnostics (§3).
type Range struct {
	Start int
	End   int
}

// Diagnostic is the structured unit the Analyzer produces and the
// Reporter consumes (§3).
type Diagnostic struct {
	Severity Severity
	File     string
	Range    Range
	Message  string
	Kind     Kind
	// Name is populated for UndefinedVariable/UnusedBinding, naming the
	// identifier in question.
	Name string
}
