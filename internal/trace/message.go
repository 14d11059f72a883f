// Package trace reconstructs the shape of a session's call tree from the
// call traces carried by its messages.
//
// The tree is never materialized as linked nodes. It is encoded as a
// breadth-first degree array: node 0 is the session root and Degrees[i] is
// the number of children of node i. Offsets, a prefix sum over the degrees,
// locates the first child of every node.
package trace

type (
	// Timestamp is the logical or wall-clock time of a log record.
	Timestamp = uint64

	// TraceID is one sibling index in a call trace.
	TraceID = uint32

	// Degree is the number of children of a tree node.
	Degree = uint32
)

// SessionizableMessage is a log record that can be assigned to a session.
type SessionizableMessage interface {
	Time() Timestamp
	Session() string
}

// TracedMessage carries the path from the session root to the call site
// that emitted it. Entry k is the sibling index at depth k+1. An empty trace
// denotes the root call itself.
type TracedMessage interface {
	CallTrace() []TraceID
}

// Message is a sessionizable message with a call trace.
type Message interface {
	SessionizableMessage
	TracedMessage
}

// MessagesForSession groups the messages of one session. The session
// identifier is expected to match every member's Session, but it is only
// verified by Check.
type MessagesForSession[M Message] struct {
	Session  string
	Messages []M
}

// ReconstructTraceTree returns the degree array of the session's call tree.
func (s MessagesForSession[M]) ReconstructTraceTree() []Degree {
	return Reconstruct(s.Messages)
}

// ReconstructTree returns the degree array of the session's call tree along
// with the child offsets.
func (s MessagesForSession[M]) ReconstructTree() Tree {
	return ReconstructTree(s.Messages)
}

// Check verifies the session against limits. See [Check].
func (s MessagesForSession[M]) Check(limits Limits) error {
	return Check(s.Session, s.Messages, limits)
}
