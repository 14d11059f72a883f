package proto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tracetree/tracetree/internal/trace"
)

func TestNewSessionTree(t *testing.T) {
	t.Parallel()

	req := SessionRequest{
		Session: "s1",
		Messages: []Record{
			{Timestamp: 1, SessionID: "s1", Trace: []uint32{1, 0}},
			{Timestamp: 2, SessionID: "s1"},
		},
	}
	batch := req.Batch()
	st := NewSessionTree(batch.Session, len(batch.Messages), batch.ReconstructTree())

	require.Equal(t, "s1", st.Session)
	require.Equal(t, int64(2), st.MessageCount)
	require.Equal(t, []uint32{2, 0, 1, 0}, st.Degrees)
	require.Equal(t, []int{1, 3, 3, 4}, st.Offsets)
	require.Equal(t, TreeStats{
		Nodes:      4,
		Leaves:     2,
		Depth:      2,
		MaxFanOut:  2,
		MaxBreadth: 2,
		Breadth:    []int{1, 2, 1},
	}, st.Stats)
}

func TestSessionTree_NodeAt(t *testing.T) {
	t.Parallel()

	st := NewSessionTree("s1", 1, trace.ReconstructTree([]Record{{Trace: []uint32{1, 0}}}))

	node, ok := st.NodeAt(2)
	require.True(t, ok)
	require.Equal(t, Node{Index: 2, Parent: 0, Depth: 1, Degree: 1, FirstChild: 3}, node)

	_, ok = st.NodeAt(4)
	require.False(t, ok)
	_, ok = st.NodeAt(-1)
	require.False(t, ok)
}

func TestRecord_JSON(t *testing.T) {
	t.Parallel()

	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"time":42,"session":"abc","trace":[0,3]}`), &r))
	require.Equal(t, uint64(42), r.Time())
	require.Equal(t, "abc", r.Session())
	require.Equal(t, []uint32{0, 3}, r.CallTrace())
}
