// SPDX-License-Identifier: MPL-2.0

// Package process implements the process runner (C1): it executes child
// processes on behalf of every other core component and normalizes their
// outcomes into typed results. No other package in rebuildctl is allowed
// to call os/exec directly.
package process

import (
	"context"
	"fmt"
	"strings"
)

// Command describes an external process invocation before it is run.
// It is the input type shared by Capture, Inherit and Piped.
type Command struct {
	// Program is the executable name or path; resolved against PATH the
	// same way os/exec.Command resolves it.
	Program string
	// Args are the arguments passed to Program, not including Program
	// itself.
	Args []string
	// Dir is the working directory for the child; empty means inherit
	// the caller's.
	Dir string
	// Env, when non-nil, replaces the inherited environment entirely
	// (same convention as exec.Cmd.Env).
	Env []string
}

// New builds a Command, the same shape every Strategy and External
// Interface method uses to describe a subprocess before handing it to
// the runner.
func New(program string, args ...string) *Command {
	return &Command{Program: program, Args: args}
}

// WithDir returns a copy of c with Dir set.
func (c *Command) WithDir(dir string) *Command {
	cp := *c
	cp.Dir = dir
	return &cp
}

// WithEnv returns a copy of c with Env set.
func (c *Command) WithEnv(env []string) *Command {
	cp := *c
	cp.Env = env
	return &cp
}

// WithArgs returns a copy of c with extra arguments appended.
func (c *Command) WithArgs(extra ...string) *Command {
	cp := *c
	cp.Args = append(append([]string{}, c.Args...), extra...)
	return &cp
}

// Render produces the printable "program arg1 arg2 ..." rendering used in
// NonZeroExit and InheritedNonZeroExit reports. Arguments containing
// whitespace are quoted so the rendering can be read back unambiguously.
func (c *Command) Render() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quoteIfNeeded(c.Program))
	for _, a := range c.Args {
		parts = append(parts, quoteIfNeeded(a))
	}
	return strings.Join(parts, " ")
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"'") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// AppendVerbosity appends up to 7 "-v" flags to cmd, saturating the count
// the same way OperationContext's verbosity counter saturates (§3). Tools
// that don't accept repeated -v flags simply never call this helper.
func AppendVerbosity(cmd *Command, verbosity int) *Command {
	if verbosity <= 0 {
		return cmd
	}
	n := verbosity
	if n > MaxVerbosity {
		n = MaxVerbosity
	}
	flags := make([]string, n)
	for i := range flags {
		flags[i] = "-v"
	}
	return cmd.WithArgs(flags...)
}

// MaxVerbosity is the saturating ceiling for both OperationContext's
// verbosity counter and the number of -v flags ever appended to a child
// command (§3, §4.1).
const MaxVerbosity = 7

// contextOrBackground guards against a nil context slipping into exec.Cmd
// construction from a caller that forgot to thread one through.
func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
