package topicform

import (
	"errors"
	"strconv"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/engine"
	"github.com/abhisek/cognigen/internal/router"
	"github.com/abhisek/cognigen/internal/screen"
	"github.com/abhisek/cognigen/internal/ui/components"
	"github.com/abhisek/cognigen/internal/ui/layout"
)

const (
	fieldName = iota
	fieldDifficulty
	fieldMinutes
	fieldOutline
	fieldSave
	fieldCount
)

var difficulties = []string{string(content.Easy), string(content.Medium), string(content.Hard)}

// TopicFormScreen adds a topic or edits one. Saving issues the mutation and
// pops back to the outline; the outcome is reported there.
type TopicFormScreen struct {
	deps *screen.Deps

	// orig is the topic being edited, nil when adding.
	orig *content.Topic

	name       components.TextInput
	difficulty components.Choice
	minutes    components.TextInput
	outline    textarea.Model
	save       components.Button
	focus      int
	errMsg     string
}

var _ screen.Screen = (*TopicFormScreen)(nil)
var _ screen.KeyHintProvider = (*TopicFormScreen)(nil)
var _ screen.InputCapturer = (*TopicFormScreen)(nil)

// New creates the form. Pass nil to add a topic.
func New(deps *screen.Deps, topic *content.Topic) *TopicFormScreen {
	f := &TopicFormScreen{
		deps:       deps,
		name:       components.NewTextInput("Topic name", "e.g. Goroutines", 120),
		difficulty: components.NewChoice("Difficulty", difficulties),
		minutes:    components.NewNumberInput("Estimated minutes", content.DefaultEstimatedMinutes),
		outline:    textarea.New(),
		save:       components.NewButton("Save topic"),
	}
	f.difficulty.Select(string(content.Medium))
	f.outline.Placeholder = "One submodule per line: title | summary"
	f.outline.ShowLineNumbers = false
	f.outline.SetHeight(6)

	if topic != nil {
		t := topic.Clone()
		f.orig = &t
		f.name.Model.SetValue(t.Name)
		f.difficulty.Select(string(t.Difficulty))
		f.minutes.Model.SetValue(strconv.Itoa(t.EstimatedTimeMinutes))
		f.outline.SetValue(FormatOutline(t.Submodules))
	}
	return f
}

func (f *TopicFormScreen) Init() tea.Cmd {
	return f.name.Focus()
}

func (f *TopicFormScreen) Title() string {
	if f.orig != nil {
		return "Edit Topic"
	}
	return "Add Topic"
}

func (f *TopicFormScreen) CapturingInput() bool {
	return true
}

func (f *TopicFormScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Ctrl+S", Description: "Save"},
		{Key: "Esc", Description: "Cancel"},
	}
}

// Topic builds the topic from the form.
func (f *TopicFormScreen) Topic() content.Topic {
	minutes, _ := f.minutes.NumericValue()
	var t content.Topic
	var existing []content.Submodule
	if f.orig != nil {
		t = f.orig.Clone()
		existing = f.orig.Submodules
	}
	t.Name = f.name.Value()
	t.Difficulty = content.Difficulty(f.difficulty.Value())
	t.EstimatedTimeMinutes = minutes
	t.Submodules = ParseOutline(f.outline.Value(), existing)
	return t
}

func (f *TopicFormScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return f, f.forward(msg)
	}

	switch kmsg.String() {
	case "esc":
		return f, router.Cmd(router.PopScreenMsg{})
	case "ctrl+s":
		return f, f.submit()
	case "tab":
		return f, f.setFocus((f.focus + 1) % fieldCount)
	case "shift+tab":
		return f, f.setFocus((f.focus - 1 + fieldCount) % fieldCount)
	case "enter":
		switch f.focus {
		case fieldSave:
			return f, f.submit()
		case fieldOutline:
		default:
			return f, f.setFocus(f.focus + 1)
		}
	}
	return f, f.forward(msg)
}

func (f *TopicFormScreen) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldName:
		f.name, cmd = f.name.Update(msg)
	case fieldDifficulty:
		f.difficulty, cmd = f.difficulty.Update(msg)
	case fieldMinutes:
		f.minutes, cmd = f.minutes.Update(msg)
	case fieldOutline:
		f.outline, cmd = f.outline.Update(msg)
	}
	return cmd
}

func (f *TopicFormScreen) setFocus(i int) tea.Cmd {
	f.name.Blur()
	f.minutes.Blur()
	f.outline.Blur()
	f.difficulty.Focused = false
	f.save.Focused = false

	f.focus = i
	switch i {
	case fieldName:
		return f.name.Focus()
	case fieldDifficulty:
		f.difficulty.Focused = true
	case fieldMinutes:
		return f.minutes.Focus()
	case fieldOutline:
		return f.outline.Focus()
	case fieldSave:
		f.save.Focused = true
	}
	return nil
}

func (f *TopicFormScreen) submit() tea.Cmd {
	ctrl := f.deps.Controller
	var (
		m   *engine.Mutation
		err error
	)
	if f.orig == nil {
		m, err = ctrl.AddTopic(f.Topic())
	} else {
		m, err = ctrl.UpdateTopic(f.Topic())
	}
	if err != nil {
		f.errMsg = api.Message(err)
		if errors.Is(err, engine.ErrBusy) {
			f.errMsg = "The topic is still being saved, try again in a moment."
		}
		return nil
	}
	return tea.Batch(f.deps.Send(m), router.Cmd(router.PopScreenMsg{}))
}
