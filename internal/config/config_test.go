package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tracetree/tracetree/internal/ingest"
	"github.com/tracetree/tracetree/internal/trace"
)

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := Load(dir, "", false, nil)
	require.NoError(t, err)

	require.Equal(t, dir, cfg.WorkingDir())
	require.Empty(t, cfg.ConfigFile())
	require.Equal(t, filepath.Join(dir, ".tracetree"), cfg.Options.DataDirectory)
	require.Positive(t, cfg.Options.Workers)
	require.Equal(t, ingest.DefaultFields(), cfg.Options.Fields)
	require.Equal(t, trace.DefaultLimits(), cfg.Options.Limits)
}

func TestLoad_Precedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "tracetree.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"options": {
			"workers": 2,
			"fields": {"session": "sid"},
			"limits": {"max_depth": 8, "max_nodes": 100}
		}
	}`), 0o644))

	cfg, err := Load(dir, "", false, []string{
		"TRACETREE_WORKERS=6",
		"TRACETREE_LIMIT_MAX_FAN_OUT=32",
		"TRACETREE_FIELD_TRACE=call.path",
		"UNRELATED=1",
	})
	require.NoError(t, err)

	require.Equal(t, path, cfg.ConfigFile())
	require.Equal(t, 6, cfg.Options.Workers)
	require.Equal(t, ingest.Fields{Session: "sid", Time: "time", Trace: "call.path"}, cfg.Options.Fields)
	require.Equal(t, trace.Limits{MaxDepth: 8, MaxFanOut: 32, MaxNodes: 100}, cfg.Options.Limits)
}

func TestLoad_DisableLimits(t *testing.T) {
	t.Parallel()

	cfg, err := Load(t.TempDir(), "", false, []string{
		"TRACETREE_LIMIT_MAX_FAN_OUT=0",
		"TRACETREE_LIMIT_MAX_NODES=0",
	})
	require.NoError(t, err)
	require.True(t, cfg.Options.Limits.IsZero())
}

func TestLoad_FlagsOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := Load(dir, "/custom/data", true, []string{"TRACETREE_DATA_DIR=/env/data"})
	require.NoError(t, err)
	require.Equal(t, "/custom/data", cfg.Options.DataDirectory)
	require.True(t, cfg.Options.Debug)
}

func TestLoad_InvalidFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tracetree.json"), []byte(`{`), 0o644))

	_, err := Load(dir, "", false, nil)
	require.Error(t, err)
}

func TestInit_CreatesDataDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := Init(dir, "", false, nil)
	require.NoError(t, err)

	bts, err := os.ReadFile(filepath.Join(cfg.Options.DataDirectory, ".gitignore"))
	require.NoError(t, err)
	require.Equal(t, "*\n", string(bts))
}

func TestLogPath(t *testing.T) {
	t.Parallel()

	require.Equal(t, filepath.Join("data", "logs", "tracetree.log"), LogPath("data"))
}
