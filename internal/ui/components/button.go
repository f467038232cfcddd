package components

import (
	"github.com/abhisek/cognigen/internal/ui/theme"
)

// Button is a focusable form button. The owning screen decides what Enter
// does while it is focused.
type Button struct {
	Label   string
	Focused bool
}

// NewButton creates a new button.
func NewButton(label string) Button {
	return Button{Label: label}
}

// View renders the button.
func (b Button) View() string {
	if b.Focused {
		return theme.ButtonActive.Render("▸ " + b.Label)
	}
	return theme.ButtonInactive.Render(b.Label)
}
