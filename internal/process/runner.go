// SPDX-License-Identifier: MPL-2.0

package process

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
)

// Runner executes Commands and normalizes their outcomes. It is the sole
// legal caller of os/exec in rebuildctl; every other component that needs
// to run an external tool goes through a Runner.
type Runner struct{}

// NewRunner constructs a Runner. Runner carries no state; a single value
// can be shared across an entire invocation.
func NewRunner() *Runner { return &Runner{} }

// Capture runs cmd to completion with both output streams captured and
// returns the corresponding Outcome (Completed, NonZeroExit or
// SpawnFailed). It always logs the rendered command at debug level before
// spawning, per §4.1.
func (r *Runner) Capture(ctx context.Context, cmd *Command) *Outcome {
	slog.Debug("process: run-capture", "cmd", cmd.Render())

	execCmd := r.build(ctx, cmd)
	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	err := execCmd.Run()
	return r.classify(err, stdout.String(), stderr.String(), cmd.Render(), false)
}

// Inherit runs cmd with stdin/stdout/stderr wired directly to the
// rebuildctl process's own, for tools the user should see and interact
// with in real time (builder output, diff tools). Output is never
// captured; a non-zero exit yields InheritedNonZeroExit, carrying only
// the status code (§4.1).
func (r *Runner) Inherit(ctx context.Context, cmd *Command) *Outcome {
	slog.Debug("process: run-inherit", "cmd", cmd.Render())

	execCmd := r.build(ctx, cmd)
	execCmd.Stdin = os.Stdin
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr

	err := execCmd.Run()
	return r.classify(err, "", "", cmd.Render(), true)
}

// Piped runs a with its stdout wired to b's stdin, and returns the
// outcome of b. b's stdout/stderr are captured the way Capture's would
// be; a's stderr is captured separately and merged into the returned
// Outcome's Stderr ahead of b's, since callers that scan piped output for
// a-specific diagnostics (e.g. the build-failure derivation scan in
// internal/external, when piping to a log monitor) need a's own stderr,
// not just the monitor's framing. If a fails to spawn, that failure — not
// b's — is reported.
func (r *Runner) Piped(ctx context.Context, a, b *Command) *Outcome {
	slog.Debug("process: run-piped", "a", a.Render(), "b", b.Render())

	execA := r.build(ctx, a)
	execB := r.build(ctx, b)

	pipeR, pipeW := io.Pipe()
	execA.Stdout = pipeW

	var aStderr bytes.Buffer
	execA.Stderr = &aStderr

	execB.Stdin = pipeR

	var bStdout, bStderr bytes.Buffer
	execB.Stdout = &bStdout
	execB.Stderr = &bStderr

	if err := execA.Start(); err != nil {
		_ = pipeW.Close()
		return &Outcome{Kind: SpawnFailed, SpawnErr: err.Error()}
	}

	if err := execB.Start(); err != nil {
		_ = pipeW.Close()
		_ = execA.Process.Kill()
		_ = execA.Wait()
		return &Outcome{Kind: SpawnFailed, SpawnErr: err.Error()}
	}

	go func() {
		_ = execA.Wait()
		_ = pipeW.Close()
	}()

	errB := execB.Wait()
	combined := a.Render() + " | " + b.Render()
	combinedStderr := aStderr.String() + bStderr.String()
	return r.classify(errB, bStdout.String(), combinedStderr, combined, false)
}

// build constructs an *exec.Cmd from a Command, wiring it into its own
// process group so a signal delivered to rebuildctl (Ctrl-C, SIGTERM)
// propagates to the whole group via normal process-group semantics (§5).
// ctx cancellation (Ctrl-C forwarded through fang.WithNotifySignal, or any
// other caller cancellation) is wired to signal the whole group rather
// than exec.CommandContext's default of killing only the group leader, so
// descendants the child itself spawned (e.g. nix's build workers) are
// terminated too.
func (r *Runner) build(ctx context.Context, cmd *Command) *exec.Cmd {
	execCmd := exec.CommandContext(contextOrBackground(ctx), cmd.Program, cmd.Args...)
	execCmd.Dir = cmd.Dir
	if cmd.Env != nil {
		execCmd.Env = cmd.Env
	}
	setProcessGroup(execCmd)
	execCmd.Cancel = func() error {
		if execCmd.Process == nil {
			return nil
		}
		return signalGroup(execCmd.Process.Pid, syscall.SIGTERM)
	}
	return execCmd
}

func (r *Runner) classify(err error, stdout, stderr, rendered string, inherited bool) *Outcome {
	if err == nil {
		return &Outcome{Kind: Completed, Status: 0, Stdout: stdout, Stderr: stderr}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		status, hasStatus := exitErr.ExitCode(), true
		if status < 0 {
			// Negative ExitCode means the process was killed by a signal
			// rather than exiting normally (§3: NonZeroExit "status code
			// or 'unknown'").
			hasStatus = false
		}
		if inherited {
			return &Outcome{Kind: InheritedNonZeroExit, Status: status, HasStatus: hasStatus}
		}
		return &Outcome{
			Kind:        NonZeroExit,
			Status:      status,
			HasStatus:   hasStatus,
			Stdout:      stdout,
			Stderr:      stderr,
			RenderedCmd: rendered,
		}
	}

	return &Outcome{Kind: SpawnFailed, SpawnErr: err.Error()}
}
