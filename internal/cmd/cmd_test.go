package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
	"github.com/tracetree/tracetree/internal/proto"
	"github.com/tracetree/tracetree/internal/trace"
)

func TestRenderTree(t *testing.T) {
	t.Parallel()

	tree := trace.ReconstructTree([]proto.Record{
		{SessionID: "s1", Trace: []uint32{0}},
		{SessionID: "s1", Trace: []uint32{1, 0}},
		{SessionID: "s1", Trace: []uint32{1, 2}},
		{SessionID: "s1", Trace: []uint32{0, 0, 1}},
	})
	out := ansi.Strip(renderTree(newStyles(), proto.NewSessionTree("s1", 4, tree)))

	var lines []string
	for _, line := range strings.Split(out, "\n") {
		lines = append(lines, strings.TrimSpace(line))
	}
	require.Equal(t, "s1", lines[0])
	require.Contains(t, out, "Nodes: 9")
	require.Contains(t, out, "Max fan-out: 3")
	require.Equal(t, []string{"0 2", "1 1 3", "2 2 0 0 0", "3 0 0"}, lines[len(lines)-4:])
}

func TestRenderReport(t *testing.T) {
	t.Parallel()

	out := ansi.Strip(renderReport(newStyles(), proto.BatchReport{
		Trees:    []proto.SessionTree{proto.NewSessionTree("ok", 0, trace.ReconstructTree[proto.Record](nil))},
		Failures: []proto.Failure{{Session: "bad", Error: "too deep"}},
	}))
	require.Contains(t, out, "rejected bad: too deep")
	require.Contains(t, out, "1 sessions reconstructed, 1 rejected")
}

func TestReconstructCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "app.jsonl")
	require.NoError(t, os.WriteFile(input, []byte(strings.Join([]string{
		`{"session":"b","time":2,"trace":[2]}`,
		`{"session":"a","time":1,"trace":[0,1]}`,
		`not json`,
		``,
		`{"session":"a","time":3}`,
	}, "\n")), 0o644))

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"reconstruct", "--json", "--save", "--data-dir", filepath.Join(dir, "data"), input})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	var report proto.BatchReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	require.Len(t, report.Trees, 2)
	require.Equal(t, "b", report.Trees[0].Session)
	require.Equal(t, []uint32{3, 0, 0, 0}, report.Trees[0].Degrees)
	require.Equal(t, "a", report.Trees[1].Session)
	require.Equal(t, int64(2), report.Trees[1].MessageCount)
	require.Equal(t, []uint32{1, 2, 0, 0}, report.Trees[1].Degrees)

	require.Contains(t, ansi.Strip(stderr.String()), "app.jsonl:3")
	require.FileExists(t, filepath.Join(dir, "data", "tracetree.db"))
}
