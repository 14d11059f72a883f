//go:build windows
// +build windows

package client

import (
	"context"
	"fmt"
	"net"

	"github.com/Microsoft/go-winio"
)

func dialPipeContext(ctx context.Context, address string) (net.Conn, error) {
	conn, err := winio.DialPipeContext(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("dial npipe %s: %w", address, err)
	}
	return conn, nil
}
