package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/ui/theme"
)

// MultiChoice renders one quiz question. The quiz session owns the state;
// this only draws it.
type MultiChoice struct {
	Question string
	Options  []string

	// Cursor is the highlighted option, Chosen the selected one (-1 for none).
	Cursor int
	Chosen int

	// Revealed shows right and wrong once the answer is submitted.
	Revealed bool
	Correct  int
}

// View renders the question and its lettered options.
func (m MultiChoice) View(width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Width(width).Render(m.Question))
	b.WriteString("\n\n")

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Cursor && !m.Revealed {
			prefix = "▸ "
		}
		mark := " "
		if i == m.Chosen {
			mark = "●"
		}
		line := fmt.Sprintf("%s%s %s)  %s", prefix, mark, content.OptionLetter(i), opt)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case m.Revealed && i == m.Correct:
			style = theme.Correct
		case m.Revealed && i == m.Chosen:
			style = theme.Incorrect
		case m.Revealed:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == m.Cursor:
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
