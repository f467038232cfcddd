package login

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cognigen/internal/ui/components"
	"github.com/abhisek/cognigen/internal/ui/layout"
	"github.com/abhisek/cognigen/internal/ui/theme"
)

func (l *LoginScreen) View(width, height int) string {
	if l.checking {
		return components.Centered(theme.Pending.Render("Checking your session..."), width, height)
	}

	var b strings.Builder
	if l.mode == modeSignUp {
		b.WriteString(theme.Title.Render("Create your account"))
	} else {
		b.WriteString(theme.Title.Render("Welcome back"))
	}
	b.WriteString("\n\n")

	for i := l.firstField(); i <= fieldPassword; i++ {
		b.WriteString(l.fields[i].View())
		b.WriteString("\n\n")
	}

	switch {
	case l.busy:
		b.WriteString(theme.Pending.Render("Signing in..."))
	case l.errMsg != "":
		b.WriteString(layout.RenderNotice(l.errMsg, true, 40))
	default:
		if l.mode == modeSignUp {
			b.WriteString(theme.Hint.Render("Ctrl+T to sign in instead"))
		} else {
			b.WriteString(theme.Hint.Render("New here? Ctrl+T to create an account"))
		}
	}

	card := components.Card(b.String(), min(components.ContentWidth(width), 60))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
