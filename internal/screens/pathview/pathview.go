package pathview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/engine"
	"github.com/abhisek/cognigen/internal/router"
	"github.com/abhisek/cognigen/internal/screen"
	"github.com/abhisek/cognigen/internal/screens/notebook"
	"github.com/abhisek/cognigen/internal/screens/quiz"
	"github.com/abhisek/cognigen/internal/screens/topicform"
	"github.com/abhisek/cognigen/internal/store"
	"github.com/abhisek/cognigen/internal/ui/components"
	"github.com/abhisek/cognigen/internal/ui/layout"
)

type mode int

const (
	modeBrowse mode = iota
	modeTitle
	modeConfirmDelete
)

// PathViewScreen shows one learning path as an outline of topics and
// submodules. Every edit goes through the controller; the outline is redrawn
// from the content tree on each frame.
type PathViewScreen struct {
	deps   *screen.Deps
	pathID string

	// fresh is set once the server copy is installed; a late cache read is
	// then ignored.
	fresh     bool
	cachedAt  time.Time
	loading   bool
	loadErr   string
	polling   bool
	expanded  map[string]bool
	selTopic  string
	selSub    string
	mode      mode
	title     components.TextInput
	lastFail  *engine.Mutation
	notice    string
	noticeErr bool
}

var _ screen.Screen = (*PathViewScreen)(nil)
var _ screen.KeyHintProvider = (*PathViewScreen)(nil)
var _ screen.Resumer = (*PathViewScreen)(nil)
var _ screen.InputCapturer = (*PathViewScreen)(nil)

// New creates the view for pathID.
func New(deps *screen.Deps, pathID string) *PathViewScreen {
	return &PathViewScreen{
		deps:     deps,
		pathID:   pathID,
		expanded: make(map[string]bool),
		title:    components.NewTextInput("Path title", "", 200),
	}
}

func (v *PathViewScreen) Init() tea.Cmd {
	v.loading = true
	return tea.Batch(v.readCache(), v.fetch())
}

// Resume restarts polling for drafts and keeps the cursor on a live row.
func (v *PathViewScreen) Resume() tea.Cmd {
	v.polling = false
	v.clampSelection()
	return v.poll()
}

func (v *PathViewScreen) Title() string {
	if p := v.path(); p != nil {
		return p.DisplayTitle()
	}
	return "Learning Path"
}

func (v *PathViewScreen) CapturingInput() bool {
	return v.mode != modeBrowse
}

func (v *PathViewScreen) KeyHints() []layout.KeyHint {
	switch v.mode {
	case modeTitle:
		return []layout.KeyHint{{Key: "Enter", Description: "Save"}, {Key: "Esc", Description: "Cancel"}}
	case modeConfirmDelete:
		return []layout.KeyHint{{Key: "Y", Description: "Delete"}, {Key: "N", Description: "Keep"}}
	}
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Open"},
		{Key: "G", Description: "Generate"},
		{Key: "A/E/D", Description: "Add/Edit/Delete"},
		{Key: "Shift+↑↓", Description: "Move"},
		{Key: "C", Description: "Complete"},
		{Key: "Q", Description: "Quiz"},
		{Key: "T", Description: "Title"},
	}
	if v.lastFail != nil {
		hints = append(hints, layout.KeyHint{Key: "U", Description: "Undo failed edit"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

// path returns the loaded path when it is the one this screen shows.
func (v *PathViewScreen) path() *content.Path {
	if v.deps.Controller.Tree().PathID() != v.pathID {
		return nil
	}
	return v.deps.Controller.Snapshot()
}

func (v *PathViewScreen) readCache() tea.Cmd {
	cache := v.deps.Cache
	if cache == nil {
		return nil
	}
	pathID := v.pathID
	log := v.deps.Logger()
	d := v.deps
	return func() tea.Msg {
		ctx, cancel := d.Context()
		defer cancel()
		cp, err := cache.Load(ctx, pathID)
		if err != nil {
			log.Warn("read cached path", "path", pathID, "error", err)
			return nil
		}
		if cp == nil {
			return nil
		}
		var p content.Path
		if err := json.Unmarshal(cp.Document, &p); err != nil {
			log.Warn("decode cached path", "path", pathID, "error", err)
			return nil
		}
		return cachedMsg{path: &p, fetchedAt: cp.FetchedAt}
	}
}

func (v *PathViewScreen) fetch() tea.Cmd {
	remote := v.deps.Remote
	pathID := v.pathID
	d := v.deps
	return func() tea.Msg {
		ctx, cancel := d.Context()
		defer cancel()
		p, err := remote.FetchPath(ctx, pathID)
		return fetchedMsg{path: p, err: err}
	}
}

func (v *PathViewScreen) saveCache(p *content.Path) tea.Cmd {
	cache := v.deps.Cache
	if cache == nil {
		return nil
	}
	doc, err := json.Marshal(p)
	if err != nil {
		v.deps.Logger().Warn("encode path for cache", "path", p.ID, "error", err)
		return nil
	}
	entry := store.CachedPath{PathID: p.ID, Title: p.DisplayTitle(), Document: doc, FetchedAt: time.Now()}
	log := v.deps.Logger()
	timeout := v.deps.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := cache.Save(ctx, entry); err != nil {
			log.Warn("cache path", "path", entry.PathID, "error", err)
		}
		return nil
	}
}

func (v *PathViewScreen) poll() tea.Cmd {
	p := v.path()
	if v.polling || p == nil || p.Status != content.StatusDraft {
		return nil
	}
	v.polling = true
	pathID := v.pathID
	return tea.Tick(v.deps.PollInterval, func(time.Time) tea.Msg { return pollMsg{pathID: pathID} })
}

func (v *PathViewScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case cachedMsg:
		if v.fresh {
			return v, nil
		}
		v.deps.Controller.Open(msg.path)
		v.cachedAt = msg.fetchedAt
		v.clampSelection()
		return v, nil

	case fetchedMsg:
		v.loading = false
		if msg.err != nil {
			if screen.Unauthorized(msg.err) {
				return v, screen.SignOut
			}
			v.loadErr = api.Message(msg.err)
			if v.path() != nil {
				v.setNotice("Showing your saved copy: "+v.loadErr, true)
			}
			return v, nil
		}
		v.fresh = true
		v.loadErr = ""
		v.cachedAt = time.Time{}
		v.deps.Controller.Open(msg.path)
		v.clampSelection()
		return v, tea.Batch(v.saveCache(msg.path), v.poll())

	case pollMsg:
		if msg.pathID != v.pathID {
			return v, nil
		}
		v.polling = false
		return v, v.fetch()

	case screen.ResolvedMsg:
		return v, v.resolved(msg.Mutation)

	case tea.KeyPressMsg:
		switch v.mode {
		case modeTitle:
			return v, v.updateTitle(msg)
		case modeConfirmDelete:
			return v, v.updateConfirm(msg)
		}
		return v, v.handleKey(msg)
	}
	return v, nil
}

// resolved reports the outcome of a mutation issued from any screen.
func (v *PathViewScreen) resolved(m *engine.Mutation) tea.Cmd {
	if m.PathID != v.pathID {
		return nil
	}
	switch m.Phase {
	case engine.PhaseFailed:
		if screen.Unauthorized(m.Err) {
			return screen.SignOut
		}
		text := fmt.Sprintf("%s failed: %s", m.Label, api.Message(m.Err))
		if !m.Reverted && m.Policy() == engine.KeepOnFailure {
			v.lastFail = m
			text += " (U to undo)"
		}
		v.setNotice(text, true)
		v.clampSelection()
	case engine.PhaseCommitted:
		if v.lastFail != nil && v.lastFail.Entity == m.Entity {
			v.lastFail = nil
		}
		switch m.Kind {
		case engine.KindGenerateContent:
			v.setNotice(m.Label+" done.", false)
		case engine.KindAddTopic:
			v.clampSelection()
		}
		if p := v.path(); p != nil {
			return v.saveCache(p)
		}
	}
	return nil
}

func (v *PathViewScreen) setNotice(msg string, isErr bool) {
	v.notice = msg
	v.noticeErr = isErr
}

// issue starts a mutation or reports why it could not start.
func (v *PathViewScreen) issue(m *engine.Mutation, err error) tea.Cmd {
	if err != nil {
		v.setNotice(describe(err), true)
		return nil
	}
	v.notice = ""
	return v.deps.Send(m)
}

// describe turns a local rejection into a sentence.
func describe(err error) string {
	switch {
	case errors.Is(err, engine.ErrGenerationInFlight):
		return "Another topic is generating. Please wait for it to finish."
	case errors.Is(err, engine.ErrAlreadyGenerated):
		return "Content for this topic has already been generated."
	case errors.Is(err, engine.ErrBusy):
		return "Still saving, try again in a moment."
	case errors.Is(err, engine.ErrNoPath):
		return "The path is still loading."
	}
	return api.Message(err)
}

// selection returns the selected topic and, for submodule rows, submodule.
func (v *PathViewScreen) selection() (content.Topic, *content.Submodule, bool) {
	tree := v.deps.Controller.Tree()
	t, ok := tree.Topic(v.selTopic)
	if !ok {
		return content.Topic{}, nil, false
	}
	if v.selSub == "" {
		return t, nil, true
	}
	for i := range t.Submodules {
		if t.Submodules[i].ID == v.selSub {
			return t, &t.Submodules[i], true
		}
	}
	return t, nil, true
}

func (v *PathViewScreen) rows() ([]row, []content.Topic) {
	topics := v.deps.Controller.Tree().Topics()
	return buildRows(topics, v.expanded), topics
}

func (v *PathViewScreen) cursor() int {
	rows, topics := v.rows()
	return max(indexOf(rows, topics, v.selTopic, v.selSub), 0)
}

func (v *PathViewScreen) selectRow(i int) {
	rows, topics := v.rows()
	if len(rows) == 0 {
		v.selTopic, v.selSub = "", ""
		return
	}
	i = min(max(i, 0), len(rows)-1)
	r := rows[i]
	v.selTopic = topics[r.topic].ID
	v.selSub = ""
	if !r.isTopic() {
		v.selSub = topics[r.topic].Submodules[r.sub].ID
	}
}

// clampSelection keeps the cursor on an existing row after the tree changed.
func (v *PathViewScreen) clampSelection() {
	rows, topics := v.rows()
	if indexOf(rows, topics, v.selTopic, v.selSub) >= 0 {
		return
	}
	if v.selSub != "" {
		if i := indexOf(rows, topics, v.selTopic, ""); i >= 0 {
			v.selectRow(i)
			return
		}
	}
	v.selectRow(0)
}

func (v *PathViewScreen) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	ctrl := v.deps.Controller
	switch msg.String() {
	case "up", "k":
		v.selectRow(v.cursor() - 1)
		return nil
	case "down", "j":
		v.selectRow(v.cursor() + 1)
		return nil
	case "r":
		v.loading = true
		return v.fetch()
	}

	if v.path() == nil {
		return nil
	}
	topic, sub, ok := v.selection()

	switch msg.String() {
	case "t":
		v.mode = modeTitle
		v.title.Model.SetValue(v.path().Title)
		return v.title.Focus()
	case "a":
		return router.Cmd(router.PushScreenMsg{Screen: topicform.New(v.deps, nil)})
	case "u":
		return v.undo()
	}
	if !ok {
		return nil
	}

	switch msg.String() {
	case "enter", "space", "right", "left":
		if sub == nil {
			v.expanded[topic.ID] = !v.expanded[topic.ID]
			return nil
		}
		if msg.String() == "left" {
			v.selSub = ""
			return nil
		}
		return router.Cmd(router.PushScreenMsg{Screen: notebook.New(v.deps, topic.ID, sub.ID)})
	case "e":
		return router.Cmd(router.PushScreenMsg{Screen: topicform.New(v.deps, &topic)})
	case "d":
		v.mode = modeConfirmDelete
		return nil
	case "g":
		return v.issue(ctrl.GenerateTopicContent(topic.ID))
	case "shift+up", "K":
		return v.move(topic, sub, -1)
	case "shift+down", "J":
		return v.move(topic, sub, 1)
	}

	if sub == nil {
		return nil
	}
	switch msg.String() {
	case "c":
		if sub.Completed {
			v.setNotice("Already completed.", false)
			return nil
		}
		return v.issue(ctrl.MarkSubmoduleComplete(topic.ID, sub.ID))
	case "q":
		return router.Cmd(router.PushScreenMsg{Screen: quiz.New(v.deps, topic.ID, sub.ID)})
	}
	return nil
}

func (v *PathViewScreen) move(topic content.Topic, sub *content.Submodule, delta int) tea.Cmd {
	ctrl := v.deps.Controller
	if sub == nil {
		from := ctrl.Tree().TopicIndex(topic.ID)
		return v.issue(ctrl.ReorderTopics(from, from+delta))
	}
	from := -1
	for i, s := range topic.Submodules {
		if s.ID == sub.ID {
			from = i
		}
	}
	return v.issue(ctrl.ReorderSubmodules(topic.ID, from, from+delta))
}

func (v *PathViewScreen) undo() tea.Cmd {
	if v.lastFail == nil {
		return nil
	}
	m := v.lastFail
	v.lastFail = nil
	if err := v.deps.Controller.Rollback(m); err != nil {
		v.setNotice("Could not undo: "+describe(err), true)
		return nil
	}
	v.clampSelection()
	v.setNotice("Restored the previous version.", false)
	return nil
}

func (v *PathViewScreen) updateTitle(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		v.mode = modeBrowse
		v.title.Blur()
		return nil
	case "enter":
		m, err := v.deps.Controller.UpdatePathTitle(v.title.Value())
		if err != nil {
			v.setNotice(describe(err), true)
			return nil
		}
		v.mode = modeBrowse
		v.title.Blur()
		return v.issue(m, nil)
	}
	var cmd tea.Cmd
	v.title, cmd = v.title.Update(msg)
	return cmd
}

func (v *PathViewScreen) updateConfirm(msg tea.KeyPressMsg) tea.Cmd {
	v.mode = modeBrowse
	if msg.String() != "y" {
		return nil
	}
	topic, sub, ok := v.selection()
	if !ok {
		return nil
	}
	ctrl := v.deps.Controller
	if sub == nil {
		cmd := v.issue(ctrl.DeleteTopic(topic.ID))
		v.clampSelection()
		return cmd
	}
	cmd := v.issue(ctrl.DeleteSubmodule(topic.ID, sub.ID))
	v.clampSelection()
	return cmd
}
