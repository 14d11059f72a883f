package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log/v2"
	"github.com/spf13/cobra"
	"github.com/tracetree/tracetree/internal/config"
	"github.com/tracetree/tracetree/internal/db"
	"github.com/tracetree/tracetree/internal/server"
	"github.com/tracetree/tracetree/internal/store"
)

func init() {
	serverCmd.Flags().StringP("host", "H", server.DefaultHost(), "Server host (TCP or Unix socket)")
	rootCmd.AddCommand(serverCmd)
}

const shutdownTimeout = 5 * time.Second

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the tracetree server",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, err := cmd.Flags().GetString("data-dir")
		if err != nil {
			return fmt.Errorf("failed to get data directory: %v", err)
		}
		debug, err := cmd.Flags().GetBool("debug")
		if err != nil {
			return fmt.Errorf("failed to get debug flag: %v", err)
		}

		cfg, err := config.Init("", dataDir, debug, os.Environ())
		if err != nil {
			return fmt.Errorf("failed to load configuration: %v", err)
		}

		logger := log.New(os.Stderr)
		logger.SetReportTimestamp(true)
		slog.SetDefault(slog.New(logger))
		if cfg.Options.Debug {
			logger.SetLevel(log.DebugLevel)
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}

		host := resolveHost(cmd, cfg)
		hostURL, err := server.ParseHostURL(host)
		if err != nil {
			return fmt.Errorf("invalid server host: %v", err)
		}

		conn, err := db.Connect(cmd.Context(), cfg.Options.DataDirectory)
		if err != nil {
			return fmt.Errorf("failed to open database: %v", err)
		}
		defer conn.Close()

		srv := server.NewServer(cfg, hostURL.Scheme, hostURL.Host, store.NewService(db.New(conn)))
		srv.SetLogger(slog.Default())
		slog.Info("Starting tracetree server...", "addr", host, "data_dir", cfg.Options.DataDirectory, "workers", cfg.Options.Workers)

		return serve(cmd.Context(), srv)
	},
}

// serve runs srv until it fails, is shut down through the control endpoint
// or the process receives a stop signal.
func serve(ctx context.Context, srv *server.Server) error {
	ctx, stop := signal.NotifyContext(ctx, addSignals([]os.Signal{os.Interrupt})...)
	defer stop()

	errch := make(chan error, 1)
	go func() {
		errch <- srv.ListenAndServe()
	}()

	select {
	case err := <-errch:
		if errors.Is(err, server.ErrServerClosed) {
			return nil
		}
		_ = srv.Close()
		slog.Error("Server error", "error", err)
		return fmt.Errorf("server error: %v", err)
	case <-ctx.Done():
		slog.Info("Received stop signal, shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shutdown server", "error", err)
		return fmt.Errorf("failed to shutdown server: %v", err)
	}
	return nil
}

// resolveHost prefers an explicit --host, then the configured host, then the
// default socket.
func resolveHost(cmd *cobra.Command, cfg *config.Config) string {
	host, _ := cmd.Flags().GetString("host")
	if !cmd.Flags().Changed("host") && cfg.Options.Host != "" {
		return cfg.Options.Host
	}
	return host
}
