package app

import (
	"errors"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cognigen/internal/engine"
	"github.com/abhisek/cognigen/internal/router"
	"github.com/abhisek/cognigen/internal/screen"
	"github.com/abhisek/cognigen/internal/screens/login"
	"github.com/abhisek/cognigen/internal/screens/paths"
	"github.com/abhisek/cognigen/internal/screens/welcome"
	"github.com/abhisek/cognigen/internal/ui/layout"
)

// AppModel is the root Bubble Tea model. It owns navigation and resolves
// every remote outcome against the engine before the active screen sees it.
type AppModel struct {
	router *router.Router
	deps   *screen.Deps
	width  int
	height int
}

// newAppModel starts on the welcome splash, then checks the session.
func newAppModel(deps *screen.Deps) AppModel {
	start := welcome.New(func() screen.Screen {
		return login.New(deps, pathsFactory(deps), true)
	})
	return AppModel{
		router: router.New(start),
		deps:   deps,
	}
}

func pathsFactory(deps *screen.Deps) func() screen.Screen {
	return func() screen.Screen { return paths.New(deps) }
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if c, ok := m.router.Active().(screen.InputCapturer); ok && c.CapturingInput() {
				break
			}
			if m.router.Depth() > 1 {
				return m, router.Cmd(router.PopScreenMsg{})
			}
			return m, nil
		}

	case screen.MutationMsg:
		mut := m.deps.Controller.Resolve(msg.Result)
		return m, m.router.Update(screen.ResolvedMsg{Mutation: mut})

	case screen.PathGeneratedMsg:
		id, err := m.deps.Tracker.ResolvePath(msg.Result)
		if errors.Is(err, engine.ErrSessionEnded) {
			m.deps.Logger().Info("dropped path generation result from an earlier session")
			return m, nil
		}
		if err != nil {
			m.deps.Logger().Warn("path generation failed", "error", err)
		} else {
			m.deps.Logger().Info("path generated", "path", id)
		}
		return m, m.router.Update(screen.PathReadyMsg{ID: id, Err: err})

	case screen.SignedOutMsg:
		m.deps.Controller.Close()
		m.deps.Tracker.Reset()
		return m, m.router.Reset(login.New(m.deps, pathsFactory(m.deps), false))
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

// busy reports outstanding generation work for the header.
func (m AppModel) busy() bool {
	return m.deps.Controller.TopicJob().Active() || m.deps.Tracker.Job().Pending()
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	user := ""
	if u := m.deps.Auth.User(); u != nil {
		user = u.Name
	}
	header := layout.RenderHeader(title, user, m.busy(), m.width)

	var footerHints []layout.KeyHint
	if p, ok := active.(screen.KeyHintProvider); ok {
		footerHints = p.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(deps *screen.Deps) error {
	p := tea.NewProgram(newAppModel(deps))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
