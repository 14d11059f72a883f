package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tracetree/tracetree/internal/db"
	"github.com/tracetree/tracetree/internal/ingest"
	"github.com/tracetree/tracetree/internal/pipeline"
	"github.com/tracetree/tracetree/internal/proto"
	"github.com/tracetree/tracetree/internal/store"
	"github.com/tracetree/tracetree/internal/trace"
)

var reconstructCmd = &cobra.Command{
	Use:   "reconstruct [file...]",
	Short: "Reconstruct session call trees locally",
	Long: `Read JSON Lines records from files or stdin, group them by session and
rebuild each session's call tree without a server.`,
	Example: `
# Print the trees of every session in a file
tracetree reconstruct app.jsonl

# Store the results in the local database
tracetree reconstruct --save app.jsonl
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		save, _ := cmd.Flags().GetBool("save")
		noLimits, _ := cmd.Flags().GetBool("no-limits")

		cfg, err := setup(cmd)
		if err != nil {
			return err
		}

		records, err := readInputs(cmd, args, cfg.Options.Fields)
		if err != nil {
			return err
		}
		batch := ingest.BySession[proto.Record]{}.Group(records)

		limits := cfg.Options.Limits
		if noLimits {
			limits = trace.Limits{}
		}
		opts := []pipeline.Option{
			pipeline.WithWorkers(cfg.Options.Workers),
			pipeline.WithLimits(limits),
		}
		if save {
			conn, err := db.Connect(cmd.Context(), cfg.Options.DataDirectory)
			if err != nil {
				return err
			}
			defer conn.Close()
			opts = append(opts, pipeline.WithStore(store.NewService(db.New(conn))))
		}

		report, err := pipeline.Run(cmd.Context(), pipeline.New(opts...), batch)
		if err != nil {
			slog.Error("Reconstruction failed", "error", err)
			return fmt.Errorf("reconstruction failed: %w", err)
		}

		if asJSON {
			return printJSON(cmd.OutOrStdout(), report.Proto())
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderReport(newStyles(), report.Proto()))
		return nil
	},
}

func init() {
	reconstructCmd.Flags().Bool("json", false, "Print the batch report as JSON")
	reconstructCmd.Flags().Bool("save", false, "Store the trees in the local database")
	reconstructCmd.Flags().Bool("no-limits", false, "Ignore the configured depth, fan-out and node limits")
	rootCmd.AddCommand(reconstructCmd)
}
