package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tracetree/tracetree/internal/proto"
)

func TestReadRecords(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		`{"session":"a","time":3,"trace":[1,0]}`,
		``,
		`{"session":"b","time":"2025-10-01T12:00:00Z"}`,
		`not json`,
		`{"session":"a","time":1,"trace":[-1]}`,
		`{"session":"a","time":1.5,"trace":[0]}`,
		`{"session":"a","trace":"0.1"}`,
		`{"session":"a","trace":[]}`,
	}, "\n")

	result, err := ReadRecords(strings.NewReader(input), "input.jsonl", Fields{})
	require.NoError(t, err)
	require.Equal(t, []proto.Record{
		{SessionID: "a", Timestamp: 3, Trace: []uint32{1, 0}},
		{SessionID: "b", Timestamp: 1759320000000},
		{SessionID: "a", Trace: []uint32{}},
	}, result.Records)

	require.Len(t, result.Warnings, 4)
	require.ErrorIs(t, result.Warnings[0], ErrInvalidJSON)
	require.ErrorIs(t, result.Warnings[1], ErrInvalidTrace)
	require.ErrorIs(t, result.Warnings[2], ErrInvalidTime)
	require.ErrorIs(t, result.Warnings[3], ErrInvalidTrace)

	var lineErr *LineError
	require.ErrorAs(t, result.Warnings[0], &lineErr)
	require.Equal(t, 4, lineErr.Line)
	require.Equal(t, "input.jsonl:4: invalid JSON", lineErr.Error())
}

func TestReadRecords_MissingSession(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		`{"time":1,"trace":[0]}`,
		`{"session":"","trace":[0]}`,
		`{"session":42,"trace":[1]}`,
	}, "\n")

	result, err := ReadRecords(strings.NewReader(input), "input.jsonl", Fields{})
	require.NoError(t, err)
	require.Equal(t, []proto.Record{{SessionID: "42", Trace: []uint32{1}}}, result.Records)
	require.Len(t, result.Warnings, 2)
	for _, w := range result.Warnings {
		require.ErrorIs(t, w, ErrMissingSession)
	}
}

func TestReadRecords_CustomFields(t *testing.T) {
	t.Parallel()

	input := `{"meta":{"sid":"x","ts":9},"call":{"path":[2,1]}}`
	result, err := ReadRecords(strings.NewReader(input), "stdin", Fields{
		Session: "meta.sid",
		Time:    "meta.ts",
		Trace:   "call.path",
	})
	require.NoError(t, err)
	require.Empty(t, result.Warnings)
	require.Equal(t, []proto.Record{
		{SessionID: "x", Timestamp: 9, Trace: []uint32{2, 1}},
	}, result.Records)
}

func TestFields_WithDefaults(t *testing.T) {
	t.Parallel()

	got := Fields{Trace: "path"}.WithDefaults()
	require.Equal(t, Fields{Session: "session", Time: "time", Trace: "path"}, got)
}
