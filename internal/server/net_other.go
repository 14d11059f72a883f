//go:build !windows
// +build !windows

package server

import (
	"errors"
	"fmt"
	"net"
	"os"
)

// listen removes a stale unix socket left behind by a previous server
// before binding. A socket that still accepts connections is left alone.
func listen(network, address string) (net.Listener, error) {
	if network == "unix" {
		if conn, err := net.Dial(network, address); err == nil {
			conn.Close()
			return nil, fmt.Errorf("server already running on %s", address)
		}
		if err := os.Remove(address); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}
	return net.Listen(network, address)
}
