package main

import (
	"strings"

	"github.com/picatz/batchgpt"
	"github.com/picatz/batchgpt/internal/harness"
	"github.com/picatz/batchgpt/internal/history"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "batchgpt",
	Short: "Exercise a batch-gpt server through its OpenAI compatible API",
	Long: `Send a chat completion, or look up batch jobs, on a batch-gpt server and
print the response in a readable form.`,
	Example: `  batchgpt --api chat_completions --content "Hello!"
  batchgpt --api status_single_batch --batch_id batch_abc123
  batchgpt --api status_all_batches --status_filter not_completed`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _ := cmd.Flags().GetString("api")
		content, _ := cmd.Flags().GetString("content")
		batchID, _ := cmd.Flags().GetString("batch_id")
		statusFilter, _ := cmd.Flags().GetString("status_filter")
		markdown, _ := cmd.Flags().GetBool("markdown")
		record, _ := cmd.Flags().GetBool("record")

		d := &harness.Dispatcher{
			Service:  client,
			Renderer: batchgpt.Renderer{Normalizer: normalizer},
			Logger:   logger,
		}

		if markdown {
			d.FormatContent = markdownFormatter(cmd.OutOrStdout())
		}

		req := harness.Request{
			Operation:    api,
			Content:      content,
			BatchID:      batchID,
			StatusFilter: statusFilter,
		}

		// The history is only opened for a valid status request.
		if _, err := harness.Validate(req); record && err == nil && req.Operation != harness.OpChatCompletions {
			store, err := history.Open(cmd.Context(), cfg.History.Backend, cfg.History.Path, logger)
			if err != nil {
				logger.Warn("failed to open history, not recording", zap.String("path", cfg.History.Path), zap.Error(err))
			} else {
				defer store.Close(cmd.Context())
				d.Recorder = history.NewRecorder(store)
			}
		}

		exitCode = d.Run(cmd.Context(), cmd.OutOrStdout(), req)
		return nil
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.String("api", "", "operation to run: "+strings.Join(harness.Operations, ", "))
	flags.String("content", "", "message content for chat_completions")
	flags.String("batch_id", "", "batch to look up for status_single_batch")
	flags.String("status_filter", "", "keep only completed or not_completed batches for status_all_batches")
	flags.Bool("markdown", false, "render chat completion content as markdown")
	flags.Bool("record", false, "append the observed batch statuses to the status history")

	persistent := rootCmd.PersistentFlags()
	persistent.String("config", "", "config file (default batchgpt.yaml in . or "+history.DefaultDir+")")
	persistent.String("base-url", batchgpt.DefaultBaseURL, "base URL of the batch-gpt server")
	persistent.String("api-key", batchgpt.DefaultAPIKey, "API key sent as a bearer token")
	persistent.String("model", batchgpt.ModelGPT35Turbo, "model for chat completions")
	persistent.String("log-level", "warn", "log level written to stderr: debug, info, warn, error")
}
