//go:build !windows
// +build !windows

package cmd

import (
	"os/exec"
	"syscall"
)

// detachProcess starts c in its own session so the spawned server outlives
// the terminal that started it.
func detachProcess(c *exec.Cmd) {
	if c.SysProcAttr == nil {
		c.SysProcAttr = &syscall.SysProcAttr{}
	}
	c.SysProcAttr.Setsid = true
}
