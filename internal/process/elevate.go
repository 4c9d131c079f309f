// SPDX-License-Identifier: MPL-2.0

package process

import "os"

// IsRoot reports whether the current process is already running with
// root privileges. Strategies consult this before wrapping a command in
// sudo: "the core never calls sudo for a command already running as
// root" (§4.1).
func IsRoot() bool {
	return os.Geteuid() == 0
}

// Elevate wraps cmd with the platform's sudo invocation, unless the
// process is already root. The exact sudo-argument composition is
// strategy-local per spec.md's open questions (SPEC_FULL.md "Open
// Question Decisions" #1); this helper implements the common case shared
// by every strategy: `sudo -- <program> <args...>`.
func Elevate(cmd *Command) *Command {
	if IsRoot() {
		return cmd
	}
	args := append([]string{"--", cmd.Program}, cmd.Args...)
	elevated := New("sudo", args...)
	elevated.Dir = cmd.Dir
	elevated.Env = cmd.Env
	return elevated
}
