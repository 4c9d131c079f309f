// SPDX-License-Identifier: MPL-2.0

//go:build unix

package process

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup places the child in its own process group so that a
// signal delivered to rebuildctl (e.g. Ctrl-C) can be forwarded to the
// whole group with a single kill(2) call, matching §5's "a signal
// delivered to the engine propagates to the current child through normal
// process-group semantics".
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup sends sig to the process group of a running command built
// by setProcessGroup. Callers hold the *exec.Cmd only while the child is
// alive; an error here (e.g. ESRCH because the child already exited) is
// not actionable and is ignored by the caller.
func signalGroup(pid int, sig syscall.Signal) error {
	return unix.Kill(-pid, sig)
}
