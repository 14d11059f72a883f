package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"github.com/tracetree/tracetree/internal/config"
	"github.com/tracetree/tracetree/internal/ingest"
	"github.com/tracetree/tracetree/internal/log"
	"github.com/tracetree/tracetree/internal/proto"
	"github.com/tracetree/tracetree/internal/version"
)

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().StringP("data-dir", "D", "", "Custom tracetree data directory")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
}

var rootCmd = &cobra.Command{
	Use:   "tracetree",
	Short: "Rebuild call trees from traced log messages",
	Long: `Tracetree reads log messages that carry a call trace, the list of sibling
indices from the root call down to the call that logged, and rebuilds the
call tree of every session in breadth-first degree encoding.`,
	Example: `
	# Reconstruct the sessions in a JSON Lines file
	tracetree reconstruct app.jsonl

	# Pipe records from stdin and print JSON
	cat app.jsonl | tracetree reconstruct --json

	# Trust the input and skip the configured limits
	tracetree reconstruct --no-limits app.jsonl

	# Run the server and submit records to it
	tracetree server
	tracetree submit app.jsonl

	# Inspect stored sessions
	tracetree ls
	tracetree show my-session
  `,
	SilenceUsage: true,
}

func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration for the working directory, creates the data
// directory and starts file logging.
func setup(cmd *cobra.Command) (*config.Config, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	dataDir, _ := cmd.Flags().GetString("data-dir")

	cwd, err := ResolveCwd(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Init(cwd, dataDir, debug, os.Environ())
	if err != nil {
		return nil, err
	}

	log.Setup(config.LogPath(cfg.Options.DataDirectory), cfg.Options.Debug)
	slog.Debug("Loaded configuration", "working_dir", cwd, "config_file", cfg.ConfigFile())
	return cfg, nil
}

// readInputs parses every file in paths, or stdin when paths is empty and
// stdin is piped. Malformed lines are reported on stderr and skipped.
func readInputs(cmd *cobra.Command, paths []string, fields ingest.Fields) ([]proto.Record, error) {
	var records []proto.Record
	read := func(r io.Reader, source string) error {
		res, err := ingest.ReadRecords(r, source, fields)
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			slog.Warn("Skipping malformed line", "error", w)
			fmt.Fprintln(cmd.ErrOrStderr(), newStyles().Warning.Render("warning: "+w.Error()))
		}
		records = append(records, res.Records...)
		return nil
	}

	if len(paths) == 0 {
		if !stdinPiped() {
			return nil, errors.New("no input: pass files or pipe records on stdin")
		}
		if err := read(os.Stdin, "stdin"); err != nil {
			return nil, err
		}
		return records, nil
	}

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		err = read(f, path)
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

func stdinPiped() bool {
	if term.IsTerminal(os.Stdin.Fd()) {
		return false
	}
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&(os.ModeNamedPipe|os.ModeCharDevice) == os.ModeNamedPipe || fi.Mode().IsRegular()
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %v", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %v", err)
	}
	return cwd, nil
}
