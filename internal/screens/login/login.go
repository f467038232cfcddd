package login

import (
	"context"
	"net/mail"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/router"
	"github.com/abhisek/cognigen/internal/screen"
	"github.com/abhisek/cognigen/internal/ui/components"
	"github.com/abhisek/cognigen/internal/ui/layout"
)

type mode int

const (
	modeSignIn mode = iota
	modeSignUp
)

const (
	fieldName = iota
	fieldEmail
	fieldPassword
)

// minPasswordLen matches the server's signup rule.
const minPasswordLen = 6

// checkedMsg is the result of the startup session check.
type checkedMsg struct {
	err error
}

// authDoneMsg is the result of a sign-in or sign-up.
type authDoneMsg struct {
	err error
}

// LoginScreen signs the user in or creates an account. Once a session exists
// it replaces itself with the screen produced by next.
type LoginScreen struct {
	deps *screen.Deps
	next func() screen.Screen

	mode     mode
	fields   []components.TextInput
	focus    int
	checking bool
	busy     bool
	errMsg   string
}

var _ screen.Screen = (*LoginScreen)(nil)
var _ screen.KeyHintProvider = (*LoginScreen)(nil)
var _ screen.InputCapturer = (*LoginScreen)(nil)

// New creates a login screen. When check is true the existing session cookie
// is verified first and the form is skipped if it is still valid.
func New(deps *screen.Deps, next func() screen.Screen, check bool) *LoginScreen {
	l := &LoginScreen{
		deps: deps,
		next: next,
		fields: []components.TextInput{
			components.NewTextInput("Name", "Ada Lovelace", 80),
			components.NewTextInput("Email", "you@example.com", 254),
			components.NewPasswordInput("Password"),
		},
		focus:    fieldEmail,
		checking: check,
	}
	return l
}

func (l *LoginScreen) Init() tea.Cmd {
	if l.checking {
		return l.check()
	}
	return l.fields[l.focus].Focus()
}

func (l *LoginScreen) Title() string {
	if l.mode == modeSignUp {
		return "Create account"
	}
	return "Sign in"
}

func (l *LoginScreen) CapturingInput() bool {
	return !l.checking
}

func (l *LoginScreen) KeyHints() []layout.KeyHint {
	if l.checking {
		return []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	}
	toggle := "Create account"
	if l.mode == modeSignUp {
		toggle = "Have an account"
	}
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Submit"},
		{Key: "Ctrl+T", Description: toggle},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (l *LoginScreen) check() tea.Cmd {
	auth := l.deps.Auth
	timeout := l.deps.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return checkedMsg{err: auth.Check(ctx)}
	}
}

func (l *LoginScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case checkedMsg:
		l.checking = false
		if msg.err != nil {
			l.deps.Logger().Warn("session check failed", "error", msg.err)
			l.errMsg = api.Message(msg.err)
		} else if l.deps.Auth.User() != nil {
			return l, router.Cmd(router.ReplaceScreenMsg{Screen: l.next()})
		}
		return l, l.fields[l.focus].Focus()

	case authDoneMsg:
		l.busy = false
		if msg.err != nil {
			l.errMsg = api.Message(msg.err)
			return l, nil
		}
		return l, router.Cmd(router.ReplaceScreenMsg{Screen: l.next()})

	case tea.KeyPressMsg:
		if l.checking || l.busy {
			return l, nil
		}
		switch msg.String() {
		case "ctrl+t":
			return l, l.toggleMode()
		case "tab", "down":
			return l, l.moveFocus(1)
		case "shift+tab", "up":
			return l, l.moveFocus(-1)
		case "enter":
			if l.focus != fieldPassword {
				return l, l.moveFocus(1)
			}
			return l, l.submit()
		}
	}

	var cmd tea.Cmd
	l.fields[l.focus], cmd = l.fields[l.focus].Update(msg)
	return l, cmd
}

func (l *LoginScreen) firstField() int {
	if l.mode == modeSignUp {
		return fieldName
	}
	return fieldEmail
}

func (l *LoginScreen) moveFocus(delta int) tea.Cmd {
	first := l.firstField()
	n := fieldPassword - first + 1
	next := first + ((l.focus-first+delta)%n+n)%n
	return l.setFocus(next)
}

func (l *LoginScreen) setFocus(i int) tea.Cmd {
	l.fields[l.focus].Blur()
	l.focus = i
	return l.fields[l.focus].Focus()
}

func (l *LoginScreen) toggleMode() tea.Cmd {
	l.errMsg = ""
	if l.mode == modeSignIn {
		l.mode = modeSignUp
		return l.setFocus(fieldName)
	}
	l.mode = modeSignIn
	return l.setFocus(fieldEmail)
}

// validate checks the form before anything is sent.
func (l *LoginScreen) validate() (name, email, password string, msg string) {
	name = strings.TrimSpace(l.fields[fieldName].Value())
	email = strings.TrimSpace(l.fields[fieldEmail].Value())
	password = l.fields[fieldPassword].Value()

	if l.mode == modeSignUp && name == "" {
		return "", "", "", "Please enter your name"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", "", "", "Please enter a valid email address"
	}
	if password == "" {
		return "", "", "", "Please enter your password"
	}
	if l.mode == modeSignUp && len(password) < minPasswordLen {
		return "", "", "", "Password must be at least 6 characters"
	}
	return name, email, password, ""
}

func (l *LoginScreen) submit() tea.Cmd {
	name, email, password, msg := l.validate()
	if msg != "" {
		l.errMsg = msg
		return nil
	}
	l.errMsg = ""
	l.busy = true

	auth := l.deps.Auth
	timeout := l.deps.RequestTimeout
	signup := l.mode == modeSignUp
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if signup {
			return authDoneMsg{err: auth.Signup(ctx, name, email, password)}
		}
		return authDoneMsg{err: auth.Login(ctx, email, password)}
	}
}
