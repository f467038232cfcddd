package generate

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cognigen/internal/ui/components"
	"github.com/abhisek/cognigen/internal/ui/layout"
	"github.com/abhisek/cognigen/internal/ui/theme"
)

func (g *GenerateScreen) View(width, height int) string {
	if g.waiting {
		body := g.spin.View() + " " + theme.Body.Render(fmt.Sprintf("Designing your %q path...", g.course.Value())) +
			"\n\n" + theme.Hint.Render("This usually takes under a minute. Press B to keep working meanwhile.")
		return components.Centered(body, width, height)
	}

	var b strings.Builder
	b.WriteString(g.course.View())
	b.WriteString("\n\n")
	for _, i := range []int{fieldLevel, fieldGoal, fieldStyle, fieldHours} {
		b.WriteString(g.choices[i].View())
		b.WriteString("\n\n")
	}
	b.WriteString(g.topics.View())
	b.WriteString("\n\n")
	b.WriteString(g.submit.View())
	if g.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(layout.RenderNotice(g.errMsg, true, components.ContentWidth(width)-6))
	}

	card := components.Card(b.String(), components.ContentWidth(width))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
