package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tracetree/tracetree/internal/proto"
	"github.com/tracetree/tracetree/internal/trace"
)

func TestBySession_Group(t *testing.T) {
	t.Parallel()

	records := []proto.Record{
		{SessionID: "b", Timestamp: 5, Trace: []uint32{0}},
		{SessionID: "a", Timestamp: 2, Trace: []uint32{1}},
		{SessionID: "b", Timestamp: 1, Trace: []uint32{2}},
		{SessionID: "a", Timestamp: 2, Trace: []uint32{3}},
		{SessionID: "", Timestamp: 0},
	}

	var g Grouper[proto.Record] = BySession[proto.Record]{}
	sessions := g.Group(records)

	require.Equal(t, []trace.MessagesForSession[proto.Record]{
		{Session: "b", Messages: []proto.Record{records[2], records[0]}},
		{Session: "a", Messages: []proto.Record{records[1], records[3]}},
		{Session: "", Messages: []proto.Record{records[4]}},
	}, sessions)

	for _, s := range sessions {
		require.NoError(t, s.Check(trace.Limits{}))
	}
}

func TestBySession_GroupEmpty(t *testing.T) {
	t.Parallel()

	require.Empty(t, BySession[proto.Record]{}.Group(nil))
}
