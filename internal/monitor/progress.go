package monitor

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/picatz/batchgpt"
)

const minBarWidth = 10

// renderProgress draws the share of completed requests of a batch, e.g.
// "████░░░░ 1/2".
func renderProgress(counts batchgpt.RequestCounts, width int) string {
	total := counts.Int("total")
	if total <= 0 {
		return mutedStyle.Render("[no requests]")
	}
	completed := min(max(counts.Int("completed"), 0), total)

	suffix := fmt.Sprintf(" %d/%d", completed, total)

	bar := progress.New(
		progress.WithSolidFill(string(primaryColor)),
		progress.WithWidth(max(width-len(suffix), minBarWidth)),
		progress.WithoutPercentage(),
	)

	return bar.ViewAs(float64(completed)/float64(total)) + suffix
}
