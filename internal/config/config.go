package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"
	"github.com/tracetree/tracetree/internal/ingest"
	"github.com/tracetree/tracetree/internal/trace"
)

const (
	appName              = "tracetree"
	defaultDataDirectory = ".tracetree"
	envPrefix            = "TRACETREE_"
)

var defaultConfigFiles = []string{
	appName + ".json",
	"." + appName + ".json",
}

type Options struct {
	DataDirectory string        `json:"data_directory,omitempty" env:"DATA_DIR"`
	Debug         bool          `json:"debug,omitempty" env:"DEBUG"`
	Host          string        `json:"host,omitempty" env:"HOST"`
	Workers       int           `json:"workers,omitempty" env:"WORKERS"`
	Fields        ingest.Fields `json:"fields" envPrefix:"FIELD_"`
	Limits        trace.Limits  `json:"limits" envPrefix:"LIMIT_"`
}

// Config holds the runtime configuration.
type Config struct {
	Options *Options `json:"options,omitempty"`

	workingDir string
	configFile string
}

// WorkingDir returns the directory the configuration was loaded from.
func (c *Config) WorkingDir() string {
	return c.workingDir
}

// ConfigFile returns the path of the configuration file in use, or an empty
// string when only defaults and the environment apply.
func (c *Config) ConfigFile() string {
	return c.configFile
}

// GetConfigPaths returns the configuration files looked up in workingDir,
// in order of precedence.
func GetConfigPaths(workingDir string) []string {
	paths := make([]string, 0, len(defaultConfigFiles))
	for _, name := range defaultConfigFiles {
		paths = append(paths, filepath.Join(workingDir, name))
	}
	return paths
}

// LogPath returns the log file location for a data directory.
func LogPath(dataDir string) string {
	return filepath.Join(dataDir, "logs", appName+".log")
}

// Load builds the configuration from defaults, the first configuration file
// found in workingDir, TRACETREE_* variables in envs and finally the
// explicit dataDir and debug arguments.
func Load(workingDir, dataDir string, debug bool, envs []string) (*Config, error) {
	cfg := &Config{
		Options:    defaultOptions(workingDir),
		workingDir: workingDir,
	}

	if workingDir != "" {
		for _, path := range GetConfigPaths(workingDir) {
			bts, err := os.ReadFile(path)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			if err := json.Unmarshal(bts, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
			cfg.configFile = path
			break
		}
	}

	if err := env.ParseWithOptions(cfg.Options, env.Options{
		Environment: env.ToMap(envs),
		Prefix:      envPrefix,
	}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if dataDir != "" {
		cfg.Options.DataDirectory = dataDir
	}
	if debug {
		cfg.Options.Debug = true
	}
	if cfg.Options.Workers <= 0 {
		cfg.Options.Workers = runtime.GOMAXPROCS(0)
	}
	cfg.Options.Fields = cfg.Options.Fields.WithDefaults()

	return cfg, nil
}

func defaultOptions(workingDir string) *Options {
	dataDir := filepath.Join(workingDir, defaultDataDirectory)
	if workingDir == "" {
		dataDir = defaultGlobalDataDir()
	}
	return &Options{
		DataDirectory: dataDir,
		Workers:       runtime.GOMAXPROCS(0),
		Fields:        ingest.DefaultFields(),
		Limits:        trace.DefaultLimits(),
	}
}

func defaultGlobalDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", appName)
	}
	return filepath.Join(os.TempDir(), appName)
}
