package components

import (
	"fmt"
	"math"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cognigen/internal/ui/theme"
)

// ProgressBar renders completion as a bar followed by a rounded percentage.
type ProgressBar struct {
	Label   string
	Percent float64 // 0..100, as the learning API reports it
	Width   int
}

// NewProgressBar creates a bar for a 0..100 percentage. Values outside the
// range are clamped.
func NewProgressBar(label string, percent float64, width int) ProgressBar {
	return ProgressBar{Label: label, Percent: min(max(percent, 0), 100), Width: width}
}

func (p ProgressBar) View() string {
	var b strings.Builder
	if p.Label != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label))
		b.WriteString("  ")
	}

	suffix := fmt.Sprintf("  %3d%%", int(math.Round(p.Percent)))
	cells := max(p.Width-lipgloss.Width(b.String())-len(suffix), 4)
	filled := int(float64(cells) * p.Percent / 100)

	b.WriteString(theme.ProgressFilled.Render(strings.Repeat(" ", filled)))
	b.WriteString(theme.ProgressEmpty.Render(strings.Repeat(" ", cells-filled)))
	b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(suffix))
	return b.String()
}
