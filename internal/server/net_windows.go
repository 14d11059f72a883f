//go:build windows
// +build windows

package server

import (
	"net"

	"github.com/Microsoft/go-winio"
)

// Session batches can be large; size pipe buffers for whole request bodies.
const pipeBufferSize = 1 << 20

func listen(network, address string) (net.Listener, error) {
	switch network {
	case "npipe":
		cfg := &winio.PipeConfig{
			MessageMode:      true,
			InputBufferSize:  pipeBufferSize,
			OutputBufferSize: pipeBufferSize,
		}
		return winio.ListenPipe(address, cfg)
	default:
		return net.Listen(network, address)
	}
}
