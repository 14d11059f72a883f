//go:build !windows
// +build !windows

package client

import (
	"context"
	"fmt"
	"net"
	"syscall"
)

// Named pipes only exist on Windows.
func dialPipeContext(_ context.Context, address string) (net.Conn, error) {
	return nil, fmt.Errorf("dial npipe %s: %w", address, syscall.EAFNOSUPPORT)
}
