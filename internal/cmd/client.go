package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"
	"github.com/tracetree/tracetree/internal/client"
	"github.com/tracetree/tracetree/internal/config"
	"github.com/tracetree/tracetree/internal/server"
)

const (
	spawnTimeout  = 10 * time.Second
	spawnInterval = 100 * time.Millisecond
)

// connect returns a client for the configured server. With spawn set, a
// detached server is started when none answers the health check.
func connect(cmd *cobra.Command, cfg *config.Config, spawn bool) (*client.Client, error) {
	host := resolveHost(cmd, cfg)
	hostURL, err := server.ParseHostURL(host)
	if err != nil {
		return nil, fmt.Errorf("invalid host URL: %v", err)
	}

	c, err := client.NewClient(hostURL.Scheme, hostURL.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %v", err)
	}

	ctx := cmd.Context()
	err = c.Health(ctx)
	if err == nil {
		return c, nil
	}
	if !spawn {
		return nil, fmt.Errorf("server not reachable at %s: %w", host, err)
	}

	if err := spawnServer(host, cfg); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, spawnTimeout)
	defer cancel()
	ticker := time.NewTicker(spawnInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("server did not start at %s: %w", host, ctx.Err())
		case <-ticker.C:
			if err := c.Health(ctx); err == nil {
				return c, nil
			}
		}
	}
}

func spawnServer(host string, cfg *config.Config) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %v", err)
	}

	args := []string{"server", "--host", host, "--data-dir", cfg.Options.DataDirectory}
	if cfg.Options.Debug {
		args = append(args, "--debug")
	}
	c := exec.Command(exe, args...)
	c.Env = os.Environ()
	detachProcess(c)

	slog.Info("Starting detached server", "host", host)
	if err := c.Start(); err != nil {
		return fmt.Errorf("failed to start server: %v", err)
	}
	return c.Process.Release()
}

func addHostFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("host", "H", server.DefaultHost(), "Server host (TCP or Unix socket)")
}
