package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/alexandernovadev/languagesai/internal/ui/theme"
)

// ProgressBar shows how many questions have been answered.
type ProgressBar struct {
	Done  int
	Total int
	Width int
}

func (p ProgressBar) View() string {
	label := fmt.Sprintf("  %d/%d answered", p.Done, p.Total)
	barWidth := max(p.Width-lipgloss.Width(label)-2, 4)

	filled := 0
	if p.Total > 0 {
		filled = min(barWidth*p.Done/p.Total, barWidth)
	}

	return theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled)) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(label)
}
