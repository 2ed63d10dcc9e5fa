package monitor

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("86")
	secondaryColor = lipgloss.Color("87")
	alertColor     = lipgloss.Color("196")
	warningColor   = lipgloss.Color("214")
	successColor   = lipgloss.Color("46")
	mutedColor     = lipgloss.Color("245")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().Padding(0, 1)

	activeTabStyle = tabStyle.
			Foreground(primaryColor).
			Bold(true).
			Underline(true)

	batchIDStyle = lipgloss.NewStyle().Foreground(secondaryColor)

	selectedStyle = lipgloss.NewStyle().Bold(true)

	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().Foreground(alertColor)

	statusStyles = map[string]lipgloss.Style{
		"completed":   lipgloss.NewStyle().Foreground(successColor),
		"failed":      lipgloss.NewStyle().Foreground(alertColor),
		"expired":     lipgloss.NewStyle().Foreground(alertColor),
		"cancelled":   lipgloss.NewStyle().Foreground(alertColor),
		"in_progress": lipgloss.NewStyle().Foreground(warningColor),
		"validating":  lipgloss.NewStyle().Foreground(warningColor),
		"finalizing":  lipgloss.NewStyle().Foreground(warningColor),
	}
)

func statusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return mutedStyle
}
