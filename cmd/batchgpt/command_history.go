package main

import (
	"fmt"

	"github.com/picatz/batchgpt"
	"github.com/picatz/batchgpt/internal/history"
	"github.com/spf13/cobra"
)

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "Show the batch statuses recorded with --record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		batchID, _ := cmd.Flags().GetString("batch_id")
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := history.Open(cmd.Context(), cfg.History.Backend, cfg.History.Path, logger)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer store.Close(cmd.Context())

		observations, err := history.List(cmd.Context(), store, history.Query{BatchID: batchID, Limit: limit})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, line := range history.Render(batchgpt.Renderer{Normalizer: normalizer}, observations) {
			fmt.Fprintln(out, line)
		}
		if len(observations) > 0 {
			fmt.Fprintln(out, styleFaint.Render(fmt.Sprintf("%d observation(s) from %s", len(observations), cfg.History.Path)))
		}
		return nil
	},
}

func init() {
	historyCommand.Flags().String("batch_id", "", "only show observations of this batch")
	historyCommand.Flags().Int("limit", 0, "only show the most recent observations")

	rootCmd.AddCommand(historyCommand)
}
