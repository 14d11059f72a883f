package proto

import (
	"github.com/tracetree/tracetree/internal/trace"
)

// Record is a single traced log record as exchanged over the wire.
type Record struct {
	Timestamp uint64   `json:"time"`
	SessionID string   `json:"session"`
	Trace     []uint32 `json:"trace"`
}

var _ trace.Message = Record{}

// Time implements [trace.SessionizableMessage].
func (r Record) Time() trace.Timestamp {
	return r.Timestamp
}

// Session implements [trace.SessionizableMessage].
func (r Record) Session() string {
	return r.SessionID
}

// CallTrace implements [trace.TracedMessage].
func (r Record) CallTrace() []trace.TraceID {
	return r.Trace
}

// SessionRequest asks the server to reconstruct the call tree of one
// complete session.
type SessionRequest struct {
	Session  string   `json:"session"`
	Messages []Record `json:"messages"`
}

// Batch returns the request as a session aggregate.
func (r SessionRequest) Batch() trace.MessagesForSession[Record] {
	return trace.MessagesForSession[Record]{
		Session:  r.Session,
		Messages: r.Messages,
	}
}
