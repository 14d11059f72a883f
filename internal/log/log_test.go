package log

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "tracetree.log")
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	Setup(logFile, true)
	require.True(t, Initialized())

	slog.Debug("reconstructed", "session", "s1")

	bts, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.Contains(t, string(bts), `"session":"s1"`)
	require.Contains(t, string(bts), `"level":"DEBUG"`)
}
