package trace

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleTree(t *testing.T) Tree {
	t.Helper()

	return ReconstructTree(traces(
		[]TraceID{0},
		[]TraceID{1, 0},
		[]TraceID{1, 2},
		[]TraceID{0, 0, 1},
	))
}

func TestTree_Topology(t *testing.T) {
	t.Parallel()

	tree := sampleTree(t)
	require.Equal(t, []Degree{2, 1, 3, 2, 0, 0, 0, 0, 0}, tree.Degrees)
	require.Equal(t, []int{1, 3, 4, 7, 9, 9, 9, 9, 9}, tree.Offsets)
	require.Equal(t, 9, tree.Len())

	start, end := tree.Children(2)
	require.Equal(t, 4, start)
	require.Equal(t, 7, end)

	require.Equal(t, []int{-1, 0, 0, 1, 2, 2, 2, 3, 3}, tree.Parents())
	require.Equal(t, [][2]int{{0, 1}, {1, 3}, {3, 7}, {7, 9}}, tree.Levels())
	require.Equal(t, 0, tree.Depth(0))
	require.Equal(t, 2, tree.Depth(5))
	require.Equal(t, 3, tree.Depth(8))
	require.Equal(t, -1, tree.Depth(42))
}

func TestTree_Locate(t *testing.T) {
	t.Parallel()

	tree := sampleTree(t)

	tests := []struct {
		path []TraceID
		node int
		ok   bool
	}{
		{path: nil, node: 0, ok: true},
		{path: []TraceID{1}, node: 2, ok: true},
		{path: []TraceID{1, 2}, node: 6, ok: true},
		{path: []TraceID{0, 0, 1}, node: 8, ok: true},
		{path: []TraceID{1, 1}, node: 5, ok: true},
		{path: []TraceID{2}, node: -1, ok: false},
		{path: []TraceID{1, 0, 0}, node: -1, ok: false},
	}
	for _, tt := range tests {
		node, ok := tree.Locate(tt.path)
		require.Equal(t, tt.ok, ok, "path %v", tt.path)
		require.Equal(t, tt.node, node, "path %v", tt.path)
	}
}

func TestTree_Stats(t *testing.T) {
	t.Parallel()

	stats := sampleTree(t).Stats()
	require.Equal(t, Stats{
		Nodes:      9,
		Leaves:     5,
		Depth:      3,
		MaxFanOut:  3,
		MaxBreadth: 4,
		Breadth:    []int{1, 2, 4, 2},
	}, stats)
}

func TestTree_StatsRootOnly(t *testing.T) {
	t.Parallel()

	stats := ReconstructTree[testMessage](nil).Stats()
	require.Equal(t, Stats{
		Nodes:      1,
		Leaves:     1,
		MaxBreadth: 1,
		Breadth:    []int{1},
	}, stats)
}

func TestTreeFromDegrees(t *testing.T) {
	t.Parallel()

	want := sampleTree(t)
	got, err := TreeFromDegrees(want.Degrees)
	require.NoError(t, err)
	require.Equal(t, want, got)

	// The rebuilt tree owns its degrees.
	got.Degrees[0] = 7
	require.Equal(t, Degree(2), want.Degrees[0])
}

func TestTreeFromDegrees_Malformed(t *testing.T) {
	t.Parallel()

	for _, degrees := range [][]Degree{
		nil,
		{2, 0},
		{0, 0},
		{1, 1},
	} {
		_, err := TreeFromDegrees(degrees)
		require.ErrorIs(t, err, ErrMalformedDegrees, "degrees %v", degrees)
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()

	msgs := traces(
		[]TraceID{0},
		[]TraceID{1, 0},
		[]TraceID{1, 2},
		[]TraceID{0, 0, 1},
	)

	tests := []struct {
		name   string
		limits Limits
		msgs   []testMessage
		err    error
	}{
		{name: "unlimited", msgs: msgs},
		{name: "within limits", limits: Limits{MaxDepth: 3, MaxFanOut: 3, MaxNodes: 9}, msgs: msgs},
		{name: "too deep", limits: Limits{MaxDepth: 2}, msgs: msgs, err: ErrTraceTooDeep},
		{name: "too wide", limits: Limits{MaxFanOut: 2}, msgs: msgs, err: ErrFanOutExceeded},
		{name: "too many nodes", limits: Limits{MaxNodes: 8}, msgs: msgs, err: ErrTooManyNodes},
		{
			name: "unrepresentable degree",
			msgs: traces([]TraceID{math.MaxUint32}),
			err:  ErrFanOutExceeded,
		},
		{
			name: "foreign session",
			msgs: append(traces([]TraceID{0}), testMessage{session: "s2"}),
			err:  ErrSessionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Check("s1", tt.msgs, tt.limits)
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestCountNodesMatchesReconstruct(t *testing.T) {
	t.Parallel()

	msgs := traces(
		[]TraceID{3, 1},
		[]TraceID{0, 0, 0, 2},
		[]TraceID{2},
		[]TraceID{3, 0, 4},
		[]TraceID{},
	)
	require.Equal(t, uint64(len(Reconstruct(msgs))), countNodes(msgs))
}

func TestMessagesForSession_Check(t *testing.T) {
	t.Parallel()

	s := MessagesForSession[testMessage]{Session: "other", Messages: traces([]TraceID{0})}
	require.ErrorIs(t, s.Check(Limits{}), ErrSessionMismatch)
	require.True(t, Limits{}.IsZero())
	require.False(t, Limits{MaxNodes: 1}.IsZero())
}

func TestDefaultLimits(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	require.False(t, limits.IsZero())

	wide := traces([]TraceID{4_000_000_000})
	require.ErrorIs(t, Check("s1", wide, limits), ErrFanOutExceeded)

	// Many narrow siblings still stay under the node bound.
	var paths [][]TraceID
	for i := range 64 {
		paths = append(paths, []TraceID{TraceID(i), TraceID(limits.MaxFanOut - 1)})
	}
	require.ErrorIs(t, Check("s1", traces(paths...), limits), ErrTooManyNodes)
}
