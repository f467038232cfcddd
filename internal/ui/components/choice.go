package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cognigen/internal/ui/theme"
)

// Choice picks one of a few fixed options with left/right.
type Choice struct {
	Label    string
	Options  []string
	Selected int
	Focused  bool
}

// NewChoice creates a choice with the first option selected.
func NewChoice(label string, options []string) Choice {
	return Choice{Label: label, Options: options}
}

// Value returns the selected option.
func (c Choice) Value() string {
	if len(c.Options) == 0 {
		return ""
	}
	return c.Options[c.Selected]
}

// Select moves the cursor to the option equal to v, if present.
func (c *Choice) Select(v string) {
	for i, o := range c.Options {
		if o == v {
			c.Selected = i
			return
		}
	}
}

// Update handles left/right.
func (c Choice) Update(msg tea.Msg) (Choice, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || !c.Focused {
		return c, nil
	}
	switch kmsg.String() {
	case "left", "h":
		c.Selected = (c.Selected - 1 + len(c.Options)) % len(c.Options)
	case "right", "l", "space":
		c.Selected = (c.Selected + 1) % len(c.Options)
	}
	return c, nil
}

// View renders the options in a row, highlighting the selected one.
func (c Choice) View() string {
	label := lipgloss.NewStyle().Foreground(theme.TextDim)
	if c.Focused {
		label = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	}
	parts := make([]string, len(c.Options))
	for i, o := range c.Options {
		if i == c.Selected {
			parts[i] = theme.ButtonActive.Padding(0, 1).Render(o)
		} else {
			parts[i] = lipgloss.NewStyle().Foreground(theme.TextDim).Padding(0, 1).Render(o)
		}
	}
	return label.Render(c.Label) + "\n" + strings.Join(parts, " ")
}
