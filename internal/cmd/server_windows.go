//go:build windows
// +build windows

package cmd

import "os"

// os.Interrupt is the only signal delivered on Windows.
func addSignals(sigs []os.Signal) []os.Signal {
	return sigs
}
