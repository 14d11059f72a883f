package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/spf13/cobra"
	"github.com/tracetree/tracetree/internal/client"
	"github.com/tracetree/tracetree/internal/proto"
	"github.com/tracetree/tracetree/internal/pubsub"
)

var showCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Show a stored session tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		node, _ := cmd.Flags().GetInt("node")

		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		c, err := connect(cmd, cfg, false)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("node") {
			n, err := c.GetNode(cmd.Context(), args[0], node)
			if errors.Is(err, client.ErrNotFound) {
				return fmt.Errorf("node %d of session %q not found", node, args[0])
			}
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), n)
			}
			s := newStyles()
			fmt.Fprintln(cmd.OutOrStdout(), lipgloss.JoinVertical(lipgloss.Left,
				s.Title.Render(fmt.Sprintf("%s #%d", args[0], n.Index)),
				s.field("  Parent", n.Parent),
				s.field("  Depth", n.Depth),
				s.field("  Degree", n.Degree),
				s.field("  First child", n.FirstChild),
			))
			return nil
		}

		tree, err := c.GetSession(cmd.Context(), args[0])
		if errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("session %q not found", args[0])
		}
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), tree)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTree(newStyles(), *tree))
		return nil
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored sessions, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		c, err := connect(cmd, cfg, false)
		if err != nil {
			return err
		}

		trees, err := c.ListSessions(cmd.Context(), limit, offset)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), trees)
		}

		s := newStyles()
		if len(trees) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), s.Muted.Render("No sessions stored"))
			return nil
		}
		lines := make([]string, 0, len(trees))
		for _, t := range trees {
			lines = append(lines, fmt.Sprintf("%s  %s  %s",
				s.Title.Render(t.Session),
				s.field("nodes", t.Stats.Nodes),
				s.Subtle.Render(time.UnixMilli(t.UpdatedAt).Format(time.DateTime))))
		}
		fmt.Fprintln(cmd.OutOrStdout(), lipgloss.JoinVertical(lipgloss.Left, lines...))
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <session>...",
	Short: "Delete stored sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		c, err := connect(cmd, cfg, false)
		if err != nil {
			return err
		}
		for _, sid := range args {
			if err := c.DeleteSession(cmd.Context(), sid); err != nil {
				return err
			}
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream session events from the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		c, err := connect(cmd, cfg, false)
		if err != nil {
			return err
		}

		events, err := c.SubscribeEvents(cmd.Context())
		if err != nil {
			return err
		}
		s := newStyles()
		for ev := range events {
			style := s.Success
			if ev.Type == pubsub.DeletedEvent {
				style = s.Error
			}
			fmt.Fprintln(cmd.OutOrStdout(), style.Render(string(ev.Type))+" "+summary(s, ev.Payload))
		}
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		c, err := connect(cmd, cfg, false)
		if err != nil {
			return err
		}
		return c.ShutdownServer(cmd.Context())
	},
}

func summary(s styles, t proto.SessionTree) string {
	return fmt.Sprintf("%s %s %s",
		s.Title.Render(t.Session),
		s.field("nodes", t.Stats.Nodes),
		s.field("depth", t.Stats.Depth))
}

func init() {
	showCmd.Flags().Bool("json", false, "Print JSON")
	showCmd.Flags().Int("node", 0, "Show a single node instead of the whole tree")
	lsCmd.Flags().Bool("json", false, "Print JSON")
	lsCmd.Flags().Int("limit", 0, "Maximum number of sessions (server default when 0)")
	lsCmd.Flags().Int("offset", 0, "Number of sessions to skip")

	for _, c := range []*cobra.Command{showCmd, lsCmd, rmCmd, watchCmd, stopCmd} {
		addHostFlag(c)
		rootCmd.AddCommand(c)
	}
}
