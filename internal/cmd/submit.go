package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit [file...]",
	Short: "Send records to a tracetree server",
	Long: `Read JSON Lines records from files or stdin and send them to the server,
which groups them by session, reconstructs and stores every tree. A server is
started in the background when none is running.`,
	Example: `
# Submit a log file
tracetree submit app.jsonl

# Pipe records from another program
tail -n 1000 app.jsonl | tracetree submit
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, err := setup(cmd)
		if err != nil {
			return err
		}

		records, err := readInputs(cmd, args, cfg.Options.Fields)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("no records to submit")
		}

		c, err := connect(cmd, cfg, true)
		if err != nil {
			return err
		}

		report, err := c.SubmitBatch(cmd.Context(), records)
		if err != nil {
			slog.Error("Failed to submit batch", "error", err)
			return err
		}
		slog.Debug("Submitted batch", "batch", report.ID, "records", len(records))

		if asJSON {
			return printJSON(cmd.OutOrStdout(), report)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderReport(newStyles(), *report))
		return nil
	},
}

func init() {
	addHostFlag(submitCmd)
	submitCmd.Flags().Bool("json", false, "Print the batch report as JSON")
	rootCmd.AddCommand(submitCmd)
}
