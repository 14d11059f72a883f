package ingest

import (
	"cmp"
	"slices"

	"github.com/tracetree/tracetree/internal/trace"
)

// Grouper splits messages into per-session batches. It stands in for the
// stage that decides when a session is complete.
type Grouper[M trace.Message] interface {
	Group(messages []M) []trace.MessagesForSession[M]
}

// BySession groups a finite batch of messages that is already known to be
// complete. Sessions keep the order in which they first appear; messages
// within a session are ordered by time, ties keeping input order.
type BySession[M trace.Message] struct{}

var _ Grouper[trace.Message] = BySession[trace.Message]{}

func (BySession[M]) Group(messages []M) []trace.MessagesForSession[M] {
	index := make(map[string]int)
	var sessions []trace.MessagesForSession[M]
	for _, m := range messages {
		id := m.Session()
		i, ok := index[id]
		if !ok {
			i = len(sessions)
			index[id] = i
			sessions = append(sessions, trace.MessagesForSession[M]{Session: id})
		}
		sessions[i].Messages = append(sessions[i].Messages, m)
	}

	for _, s := range sessions {
		slices.SortStableFunc(s.Messages, func(a, b M) int {
			return cmp.Compare(a.Time(), b.Time())
		})
	}
	return sessions
}
