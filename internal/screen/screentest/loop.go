package screentest

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/router"
	"github.com/abhisek/cognigen/internal/screen"
)

// Path is a small active path: two topics, three submodules, one resource cell.
func Path() *content.Path {
	return &content.Path{
		ID:     "p1",
		Title:  "Go",
		Status: content.StatusActive,
		Topics: []content.Topic{
			{
				ID: "t1", Name: "Basics", Difficulty: content.Medium, EstimatedTimeMinutes: 60,
				Submodules: []content.Submodule{
					{ID: "s1", Title: "Syntax", Cells: []content.Cell{
						{Type: content.CellMarkdown, Markdown: "# Hello"},
						{Type: content.CellResource, Resources: []content.Resource{{URL: "https://go.dev", Source: "web", Title: "Go"}}},
					}},
					{ID: "s2", Title: "Types", Cells: []content.Cell{}},
				},
			},
			{
				ID: "t2", Name: "Concurrency", Difficulty: content.Hard, EstimatedTimeMinutes: 90,
				Submodules: []content.Submodule{{ID: "s3", Title: "Goroutines", Cells: []content.Cell{}}},
			},
		},
	}
}

// maxRounds bounds command chains such as polling.
const maxRounds = 8

// Drive runs cmd against s the way the app loop does: mutation and path
// results are resolved through deps first, navigation messages are collected
// instead of applied, and follow-up commands run until the chain ends.
// It returns the navigation messages and the final screen.
func Drive(deps *screen.Deps, s screen.Screen, cmd tea.Cmd) ([]tea.Msg, screen.Screen) {
	var nav []tea.Msg
	pending := []tea.Cmd{cmd}
	for round := 0; round < maxRounds && len(pending) > 0; round++ {
		var next []tea.Cmd
		for _, c := range pending {
			for _, msg := range Run(c) {
				switch m := msg.(type) {
				case router.PushScreenMsg, router.PopScreenMsg, router.ReplaceScreenMsg, router.ResetMsg, screen.SignedOutMsg:
					nav = append(nav, msg)
					continue
				case screen.MutationMsg:
					msg = screen.ResolvedMsg{Mutation: deps.Controller.Resolve(m.Result)}
				case screen.PathGeneratedMsg:
					id, err := deps.Tracker.ResolvePath(m.Result)
					msg = screen.PathReadyMsg{ID: id, Err: err}
				}
				var follow tea.Cmd
				s, follow = s.Update(msg)
				if follow != nil {
					next = append(next, follow)
				}
			}
		}
		pending = next
	}
	return nav, s
}

// Key builds a key press for a printable key or a named one.
func Key(k string) tea.KeyPressMsg {
	switch k {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "tab":
		return tea.KeyPressMsg{Code: tea.KeyTab}
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "left":
		return tea.KeyPressMsg{Code: tea.KeyLeft}
	case "right":
		return tea.KeyPressMsg{Code: tea.KeyRight}
	case "shift+up":
		return tea.KeyPressMsg{Code: tea.KeyUp, Mod: tea.ModShift}
	case "shift+down":
		return tea.KeyPressMsg{Code: tea.KeyDown, Mod: tea.ModShift}
	case "pgup":
		return tea.KeyPressMsg{Code: tea.KeyPgUp}
	case "pgdown":
		return tea.KeyPressMsg{Code: tea.KeyPgDown}
	case "backspace":
		return tea.KeyPressMsg{Code: tea.KeyBackspace}
	case "space":
		return tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	}
	if rest, ok := strings.CutPrefix(k, "ctrl+"); ok && len(rest) == 1 {
		return Ctrl(rune(rest[0]))
	}
	r := []rune(k)[0]
	if len([]rune(k)) == 1 {
		return tea.KeyPressMsg{Code: r, Text: k}
	}
	return tea.KeyPressMsg{Code: r}
}

// Ctrl builds a ctrl+<r> key press.
func Ctrl(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Mod: tea.ModCtrl}
}

// Press sends a key to s and drives the resulting command.
func Press(deps *screen.Deps, s screen.Screen, k string) ([]tea.Msg, screen.Screen) {
	s, cmd := s.Update(Key(k))
	return Drive(deps, s, cmd)
}

// Type sends each rune of text as a key press.
func Type(s screen.Screen, text string) screen.Screen {
	for _, r := range text {
		s, _ = s.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	return s
}
