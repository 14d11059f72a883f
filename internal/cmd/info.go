package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/spf13/cobra"
	"github.com/tracetree/tracetree/internal/config"
	"github.com/tracetree/tracetree/internal/server"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show configuration information",
	Long:  `Display information about the current configuration including the active config file, log path, record fields and limits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := ResolveCwd(cmd)
		if err != nil {
			return err
		}
		dataDir, _ := cmd.Flags().GetString("data-dir")
		debug, _ := cmd.Flags().GetBool("debug")

		cfg, err := config.Load(cwd, dataDir, debug, os.Environ())
		if err != nil {
			return fmt.Errorf("failed to load configuration: %v", err)
		}

		s := newStyles()
		sections := []string{
			s.Title.Render("Configuration Information"),
			"",
			renderConfigSection(s, cfg),
			"",
			renderFieldsSection(s, cfg),
			"",
			renderLimitsSection(s, cfg),
		}
		fmt.Fprintln(cmd.OutOrStdout(), lipgloss.JoinVertical(lipgloss.Left, sections...))
		return nil
	},
}

func renderConfigSection(s styles, cfg *config.Config) string {
	configFile := cfg.ConfigFile()
	if configFile == "" {
		configFile = "No configuration file found (using defaults)"
	}
	host := cfg.Options.Host
	if host == "" {
		host = server.DefaultHost()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		s.field("Configuration File", configFile),
		s.field("Log Path", config.LogPath(cfg.Options.DataDirectory)),
		s.field("Working Directory", cfg.WorkingDir()),
		s.field("Data Directory", cfg.Options.DataDirectory),
		s.field("Server Host", host),
		s.field("Workers", cfg.Options.Workers),
	)
}

func renderFieldsSection(s styles, cfg *config.Config) string {
	f := cfg.Options.Fields
	return lipgloss.JoinVertical(lipgloss.Left,
		s.Section.Render("Record Fields"),
		s.field("  Session", f.Session),
		s.field("  Time", f.Time),
		s.field("  Trace", f.Trace),
	)
}

func renderLimitsSection(s styles, cfg *config.Config) string {
	l := cfg.Options.Limits
	unlimited := func(n int) any {
		if n <= 0 {
			return "unlimited"
		}
		return n
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		s.Section.Render("Limits"),
		s.field("  Max depth", unlimited(l.MaxDepth)),
		s.field("  Max fan-out", unlimited(int(l.MaxFanOut))),
		s.field("  Max nodes", unlimited(l.MaxNodes)),
	)
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
