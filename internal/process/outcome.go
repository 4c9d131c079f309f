// SPDX-License-Identifier: MPL-2.0

package process

import "strconv"

// Outcome is the result of running a Command. Exactly one of the
// Kind-tagged cases is populated; callers switch on Kind.
type Outcome struct {
	Kind Kind

	// Completed fields (Kind == Completed).
	Status int
	Stdout string
	Stderr string

	// SpawnFailed fields (Kind == SpawnFailed).
	SpawnErr string

	// NonZeroExit fields (Kind == NonZeroExit). HasStatus distinguishes
	// a known exit code from "unknown" (§3: "status code or 'unknown'").
	HasStatus   bool
	RenderedCmd string

	// InheritedNonZeroExit carries only Status; stdout/stderr went
	// straight to the user's terminal and were never captured (§3).
}

// Kind discriminates the Outcome union.
type Kind int

const (
	// Completed indicates the child exited zero.
	Completed Kind = iota
	// SpawnFailed indicates the child could not be started at all.
	SpawnFailed
	// NonZeroExit indicates a captured run (Capture) whose child exited
	// non-zero; Stdout/Stderr/RenderedCmd are populated.
	NonZeroExit
	// InheritedNonZeroExit indicates an inherited run (Inherit) whose
	// child exited non-zero; no output was captured.
	InheritedNonZeroExit
)

// Ok reports whether the outcome represents success.
func (o *Outcome) Ok() bool { return o.Kind == Completed }

// StatusString renders Status the way §3 specifies: the numeric code, or
// "unknown" if none was observable (e.g. the process was killed by a
// signal rather than exiting).
func (o *Outcome) StatusString() string {
	if !o.HasStatus {
		return "unknown"
	}
	return strconv.Itoa(o.Status)
}

// Error adapts a non-success Outcome into an error value. Completed
// outcomes return nil.
func (o *Outcome) Error() error {
	switch o.Kind {
	case Completed:
		return nil
	case SpawnFailed:
		return &SpawnError{Err: o.SpawnErr}
	case NonZeroExit:
		return &ExitError{
			Status:      o.StatusString(),
			Stdout:      o.Stdout,
			Stderr:      o.Stderr,
			RenderedCmd: o.RenderedCmd,
		}
	case InheritedNonZeroExit:
		return &InheritedExitError{Status: o.StatusString()}
	default:
		return nil
	}
}

// SpawnError reports that a child could not be started (binary missing,
// not executable, etc).
type SpawnError struct{ Err string }

func (e *SpawnError) Error() string { return "failed to start process: " + e.Err }

// ExitError reports a captured non-zero exit, carrying enough context for
// the Diagnostic Reporter (C5) to render a process-failure card.
type ExitError struct {
	Status      string
	Stdout      string
	Stderr      string
	RenderedCmd string
}

func (e *ExitError) Error() string {
	return "command `" + e.RenderedCmd + "` exited with status " + e.Status
}

// InheritedExitError reports a non-zero exit from a run whose I/O streams
// were inherited directly by the terminal; no output was captured.
type InheritedExitError struct{ Status string }

func (e *InheritedExitError) Error() string {
	return "command exited with status " + e.Status
}
