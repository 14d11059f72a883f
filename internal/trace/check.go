package trace

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrSessionMismatch = errors.New("message belongs to another session")
	ErrTraceTooDeep    = errors.New("call trace exceeds maximum depth")
	ErrFanOutExceeded  = errors.New("sibling index exceeds maximum fan-out")
	ErrTooManyNodes    = errors.New("call tree exceeds maximum node count")
)

// Limits bounds the trees a batch may produce. Zero fields are unlimited.
type Limits struct {
	MaxDepth  int    `json:"max_depth,omitempty" env:"MAX_DEPTH"`
	MaxFanOut uint32 `json:"max_fan_out,omitempty" env:"MAX_FAN_OUT"`
	MaxNodes  int    `json:"max_nodes,omitempty" env:"MAX_NODES"`
}

// DefaultLimits bounds the trees a long-running service accepts unless
// configured otherwise. A tree at MaxNodes takes 48 MiB of degrees and
// offsets.
func DefaultLimits() Limits {
	return Limits{
		MaxFanOut: 1 << 16,
		MaxNodes:  1 << 22,
	}
}

// IsZero reports whether no limit is set.
func (l Limits) IsZero() bool {
	return l == Limits{}
}

// Check verifies that every message belongs to session and that the tree
// implied by the messages stays within limits. Reconstruction itself never
// fails; Check is meant to run before it when callers need those
// guarantees.
//
// A sibling index of math.MaxUint32 is always rejected since its degree is
// not representable; reconstructing such a trace wraps the degree and can
// index past the end of the tree.
func Check[M Message](session string, messages []M, limits Limits) error {
	for i, m := range messages {
		if got := m.Session(); got != session {
			return fmt.Errorf("session %q: message %d: %w: %q", session, i, ErrSessionMismatch, got)
		}
		path := m.CallTrace()
		if limits.MaxDepth > 0 && len(path) > limits.MaxDepth {
			return fmt.Errorf("session %q: message %d: %w: %d > %d", session, i, ErrTraceTooDeep, len(path), limits.MaxDepth)
		}
		for _, idx := range path {
			if idx == math.MaxUint32 || (limits.MaxFanOut > 0 && idx >= limits.MaxFanOut) {
				return fmt.Errorf("session %q: message %d: %w: index %d", session, i, ErrFanOutExceeded, idx)
			}
		}
	}

	if limits.MaxNodes > 0 {
		if n := countNodes(messages); n > uint64(limits.MaxNodes) {
			return fmt.Errorf("session %q: %w: %d > %d", session, ErrTooManyNodes, n, limits.MaxNodes)
		}
	}
	return nil
}

// countNodes returns the node count Reconstruct would produce without
// allocating the degree array. Parents are keyed by their trace prefix.
func countNodes[M TracedMessage](messages []M) uint64 {
	degrees := make(map[string]uint64)
	var key []byte
	for _, m := range messages {
		key = key[:0]
		for _, idx := range m.CallTrace() {
			k := string(key)
			degrees[k] = max(degrees[k], uint64(idx)+1)
			key = binary.BigEndian.AppendUint32(key, idx)
		}
	}

	total := uint64(1)
	for _, d := range degrees {
		total += d
	}
	return total
}
