package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/picatz/batchgpt/internal/monitor"
	"github.com/spf13/cobra"
)

var monitorCommand = &cobra.Command{
	Use:   "monitor",
	Short: "Watch batch progress in a terminal dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := monitor.New(cmd.Context(), client, cfg.Monitor.RefreshInterval, normalizer)

		p := tea.NewProgram(m,
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(cmd.OutOrStdout()),
		)

		if _, err := p.Run(); err != nil {
			return fmt.Errorf("failed to run monitor: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(monitorCommand)
}
