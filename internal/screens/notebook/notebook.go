package notebook

import (
	"errors"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/engine"
	"github.com/abhisek/cognigen/internal/router"
	"github.com/abhisek/cognigen/internal/screen"
	"github.com/abhisek/cognigen/internal/screens/quiz"
	"github.com/abhisek/cognigen/internal/ui/layout"
)

// NotebookScreen shows the cells of one submodule and edits markdown cells.
// Positions are resolved against the live cell list on every action.
type NotebookScreen struct {
	deps    *screen.Deps
	nb      *engine.Notebook
	topicID string
	subID   string

	cursor     int
	editor     textarea.Model
	editing    bool
	confirming bool

	vp       viewport.Model
	markdown markdownRenderer

	notice    string
	noticeErr bool
}

var _ screen.Screen = (*NotebookScreen)(nil)
var _ screen.KeyHintProvider = (*NotebookScreen)(nil)
var _ screen.InputCapturer = (*NotebookScreen)(nil)
var _ screen.Resumer = (*NotebookScreen)(nil)

// New opens the notebook of a submodule.
func New(deps *screen.Deps, topicID, subID string) *NotebookScreen {
	ed := textarea.New()
	ed.ShowLineNumbers = false
	ed.SetHeight(10)
	return &NotebookScreen{
		deps:    deps,
		nb:      deps.Controller.Notebook(topicID, subID),
		topicID: topicID,
		subID:   subID,
		editor:  ed,
		vp:      viewport.New(),
	}
}

func (n *NotebookScreen) Init() tea.Cmd {
	return nil
}

// Resume drops an editor that was closed while another screen was on top.
func (n *NotebookScreen) Resume() tea.Cmd {
	n.syncEditor()
	return nil
}

func (n *NotebookScreen) Title() string {
	if sub, ok := n.submodule(); ok {
		return sub.Title
	}
	return "Notebook"
}

func (n *NotebookScreen) CapturingInput() bool {
	return n.editing || n.confirming
}

func (n *NotebookScreen) KeyHints() []layout.KeyHint {
	switch {
	case n.editing:
		return []layout.KeyHint{{Key: "Ctrl+S", Description: "Save"}, {Key: "Esc", Description: "Discard"}}
	case n.confirming:
		return []layout.KeyHint{{Key: "Y", Description: "Delete cell"}, {Key: "N", Description: "Keep"}}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Cell"},
		{Key: "Enter", Description: "Edit"},
		{Key: "A", Description: "Add below"},
		{Key: "D", Description: "Delete"},
		{Key: "C", Description: "Complete"},
		{Key: "Q", Description: "Quiz"},
		{Key: "Esc", Description: "Back"},
	}
}

func (n *NotebookScreen) submodule() (content.Submodule, bool) {
	return n.deps.Controller.Tree().Submodule(n.topicID, n.subID)
}

func (n *NotebookScreen) cells() []content.Cell {
	cells, err := n.nb.Cells()
	if err != nil {
		return nil
	}
	return cells
}

// syncEditor closes the local editor when the controller dropped the draft,
// which happens when the cell list is restructured.
func (n *NotebookScreen) syncEditor() {
	if n.editing && !n.nb.Editing(n.cursor) {
		n.editing = false
		n.editor.Blur()
		n.setNotice("The cells changed while you were editing; your draft was discarded.", true)
	}
	n.cursor = min(n.cursor, max(len(n.cells())-1, 0))
}

func (n *NotebookScreen) setNotice(msg string, isErr bool) {
	n.notice = msg
	n.noticeErr = isErr
}

func (n *NotebookScreen) issue(m *engine.Mutation, err error) tea.Cmd {
	if err != nil {
		n.setNotice(describe(err), true)
		return nil
	}
	n.notice = ""
	return n.deps.Send(m)
}

func describe(err error) string {
	switch {
	case errors.Is(err, engine.ErrNotPermitted):
		return "Resource cells cannot be modified."
	case errors.Is(err, engine.ErrStaleRef):
		return "The cells changed, try again."
	case errors.Is(err, engine.ErrNotFound):
		return "This submodule no longer exists."
	}
	return api.Message(err)
}

func (n *NotebookScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.ResolvedMsg:
		m := msg.Mutation
		if m.Phase == engine.PhaseFailed {
			if screen.Unauthorized(m.Err) {
				return n, screen.SignOut
			}
			n.setNotice(m.Label+" failed: "+api.Message(m.Err), true)
		}
		n.syncEditor()
		return n, nil

	case tea.KeyPressMsg:
		switch {
		case n.editing:
			return n, n.updateEditor(msg)
		case n.confirming:
			n.confirming = false
			if msg.String() == "y" {
				return n, n.issue(n.nb.Delete(n.nb.Ref(n.cursor)))
			}
			return n, nil
		}
		return n, n.handleKey(msg)
	}
	if n.editing {
		var cmd tea.Cmd
		n.editor, cmd = n.editor.Update(msg)
		return n, cmd
	}
	return n, nil
}

func (n *NotebookScreen) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	cells := n.cells()
	switch msg.String() {
	case "up", "k":
		n.cursor = max(n.cursor-1, 0)
	case "down", "j":
		n.cursor = min(n.cursor+1, max(len(cells)-1, 0))
	case "pgup":
		n.vp.PageUp()
	case "pgdown":
		n.vp.PageDown()
	case "enter", "e":
		return n.beginEdit()
	case "a":
		pos := n.cursor
		if len(cells) == 0 {
			pos = -1
		}
		cmd := n.issue(n.nb.InsertAfter(n.nb.Ref(pos), content.Cell{}))
		if cmd != nil && pos >= 0 {
			n.cursor = pos + 1
		}
		return cmd
	case "d":
		if len(cells) == 0 {
			return nil
		}
		if !cells[n.cursor].Mutable() {
			n.setNotice("Resource cells cannot be modified.", true)
			return nil
		}
		n.confirming = true
	case "c":
		sub, ok := n.submodule()
		if !ok || sub.Completed {
			return nil
		}
		return n.issue(n.deps.Controller.MarkSubmoduleComplete(n.topicID, n.subID))
	case "q":
		return router.Cmd(router.PushScreenMsg{Screen: quiz.New(n.deps, n.topicID, n.subID)})
	}
	return nil
}

func (n *NotebookScreen) beginEdit() tea.Cmd {
	discarded, err := n.nb.BeginEdit(n.nb.Ref(n.cursor))
	if err != nil {
		n.setNotice(describe(err), true)
		return nil
	}
	if discarded {
		n.setNotice("An unsaved edit in another cell was discarded.", true)
	} else {
		n.notice = ""
	}
	n.editing = true
	n.editor.SetValue(n.nb.Draft())
	return n.editor.Focus()
}

func (n *NotebookScreen) updateEditor(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		n.nb.CancelEdit()
		n.editing = false
		n.editor.Blur()
		return nil
	case "ctrl+s":
		n.nb.SetDraft(n.editor.Value())
		m, err := n.nb.CommitEdit()
		n.editing = false
		n.editor.Blur()
		return n.issue(m, err)
	}
	var cmd tea.Cmd
	n.editor, cmd = n.editor.Update(msg)
	n.nb.SetDraft(n.editor.Value())
	return cmd
}
