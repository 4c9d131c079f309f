// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package process

import (
	"os/exec"
	"syscall"
)

// setProcessGroup is a no-op outside Unix; Windows has no process-group
// signal semantics equivalent to §5's description.
func setProcessGroup(cmd *exec.Cmd) {}

func signalGroup(pid int, sig syscall.Signal) error { return nil }
