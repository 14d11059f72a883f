//go:build !windows
// +build !windows

package cmd

import (
	"os"
	"syscall"
)

// addSignals adds the signals a service manager sends to stop the server.
func addSignals(sigs []os.Signal) []os.Signal {
	return append(sigs, syscall.SIGTERM, syscall.SIGHUP)
}
