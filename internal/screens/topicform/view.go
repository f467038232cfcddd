package topicform

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cognigen/internal/ui/components"
	"github.com/abhisek/cognigen/internal/ui/layout"
	"github.com/abhisek/cognigen/internal/ui/theme"
)

func (f *TopicFormScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	f.outline.SetWidth(cw - 8)

	label := lipgloss.NewStyle().Foreground(theme.TextDim)
	if f.focus == fieldOutline {
		label = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	}

	var b strings.Builder
	b.WriteString(f.name.View())
	b.WriteString("\n\n")
	b.WriteString(f.difficulty.View())
	b.WriteString("\n\n")
	b.WriteString(f.minutes.View())
	b.WriteString("\n\n")
	b.WriteString(label.Render("Submodules"))
	b.WriteString("\n")
	b.WriteString(f.outline.View())
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render("Leave empty to start with one submodule named after the topic."))
	b.WriteString("\n\n")
	b.WriteString(f.save.View())
	if f.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(layout.RenderNotice(f.errMsg, true, cw-6))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, components.Card(b.String(), cw))
}
