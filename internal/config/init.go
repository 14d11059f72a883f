package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Init loads the configuration and prepares its data directory.
func Init(workingDir, dataDir string, debug bool, envs []string) (*Config, error) {
	cfg, err := Load(workingDir, dataDir, debug, envs)
	if err != nil {
		return nil, err
	}
	if err := createDataDir(cfg.Options.DataDirectory); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDataDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %q %w", dir, err)
	}

	gitIgnorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitIgnorePath); os.IsNotExist(err) {
		if err := os.WriteFile(gitIgnorePath, []byte("*\n"), 0o644); err != nil {
			return fmt.Errorf("failed to create .gitignore file: %q %w", gitIgnorePath, err)
		}
	}

	return nil
}
