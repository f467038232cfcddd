package paths

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/engine"
	"github.com/abhisek/cognigen/internal/router"
	"github.com/abhisek/cognigen/internal/screen"
	"github.com/abhisek/cognigen/internal/screens/generate"
	"github.com/abhisek/cognigen/internal/screens/pathview"
	"github.com/abhisek/cognigen/internal/ui/components"
	"github.com/abhisek/cognigen/internal/ui/layout"
)

// PathsScreen lists the user's learning paths and keeps drafts fresh until
// the server finishes generating them.
type PathsScreen struct {
	deps *screen.Deps

	cursor  int
	loading bool
	polling bool

	confirming bool
	confirm    components.TextInput
	deleting   string

	notice    string
	noticeErr bool
}

var _ screen.Screen = (*PathsScreen)(nil)
var _ screen.KeyHintProvider = (*PathsScreen)(nil)
var _ screen.Resumer = (*PathsScreen)(nil)
var _ screen.InputCapturer = (*PathsScreen)(nil)

// New creates the path list.
func New(deps *screen.Deps) *PathsScreen {
	return &PathsScreen{
		deps:    deps,
		confirm: components.NewTextInput(`Type "delete" to confirm`, engine.DeleteConfirmation, 16),
	}
}

func (p *PathsScreen) Init() tea.Cmd {
	return p.load()
}

// Resume reloads the list; the poll chain does not survive a pushed screen.
func (p *PathsScreen) Resume() tea.Cmd {
	p.polling = false
	return p.load()
}

func (p *PathsScreen) Title() string {
	return "Learning Paths"
}

func (p *PathsScreen) CapturingInput() bool {
	return p.confirming
}

func (p *PathsScreen) KeyHints() []layout.KeyHint {
	if p.confirming {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Delete"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open"},
		{Key: "N", Description: "New path"},
		{Key: "D", Description: "Delete"},
		{Key: "R", Description: "Refresh"},
		{Key: "L", Description: "Sign out"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (p *PathsScreen) load() tea.Cmd {
	p.loading = true
	remote := p.deps.Remote
	d := p.deps
	epoch := p.deps.Tracker.Epoch()
	return func() tea.Msg {
		ctx, cancel := d.Context()
		defer cancel()
		paths, err := remote.ListPaths(ctx)
		return listedMsg{epoch: epoch, paths: paths, err: err}
	}
}

func (p *PathsScreen) poll() tea.Cmd {
	if p.polling || !p.deps.Tracker.NeedsPoll() {
		return nil
	}
	p.polling = true
	return tea.Tick(p.deps.PollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (p *PathsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case listedMsg:
		p.loading = false
		if msg.err != nil {
			if screen.Unauthorized(msg.err) {
				return p, screen.SignOut
			}
			p.setNotice(api.Message(msg.err), true)
			return p, p.poll()
		}
		if !p.deps.Tracker.ApplyListing(msg.epoch, msg.paths) {
			p.deps.Logger().Debug("dropped stale path listing", "epoch", msg.epoch)
			return p, p.load()
		}
		p.clampCursor()
		return p, p.poll()

	case pollMsg:
		p.polling = false
		return p, p.load()

	case deletedMsg:
		p.deleting = ""
		if err := p.deps.Tracker.ResolveDelete(msg.result); err != nil {
			if screen.Unauthorized(err) {
				return p, screen.SignOut
			}
			p.setNotice("Could not delete path: "+api.Message(err), true)
			return p, nil
		}
		p.dropCache(msg.result.PathID)
		p.clampCursor()
		p.setNotice("Path deleted.", false)
		return p, nil

	case screen.PathReadyMsg:
		if msg.Err != nil {
			p.setNotice("Path generation failed: "+api.Message(msg.Err), true)
			return p, nil
		}
		p.setNotice("Your new path is being filled in.", false)
		return p, p.poll()

	case tea.KeyPressMsg:
		if p.confirming {
			return p, p.updateConfirm(msg)
		}
		return p, p.handleKey(msg)
	}
	return p, nil
}

func (p *PathsScreen) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	list := p.deps.Tracker.Paths()
	switch msg.String() {
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(list)-1 {
			p.cursor++
		}
	case "enter":
		if len(list) == 0 {
			return nil
		}
		p.notice = ""
		return router.Cmd(router.PushScreenMsg{Screen: pathview.New(p.deps, list[p.cursor].ID)})
	case "n":
		if err := p.deps.Tracker.CanGenerate(); err != nil {
			p.setNotice("A path is already being generated. Please wait for it to finish.", true)
			return nil
		}
		p.notice = ""
		return router.Cmd(router.PushScreenMsg{Screen: generate.New(p.deps)})
	case "d":
		if len(list) == 0 || p.deleting != "" {
			return nil
		}
		p.confirming = true
		p.confirm.Model.SetValue("")
		return p.confirm.Focus()
	case "r":
		p.notice = ""
		return p.load()
	case "L":
		return p.signOut()
	}
	return nil
}

func (p *PathsScreen) updateConfirm(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		p.closeConfirm()
		return nil
	case "enter":
		list := p.deps.Tracker.Paths()
		if len(list) == 0 {
			p.closeConfirm()
			return nil
		}
		req, err := p.deps.Tracker.RequestDelete(list[p.cursor].ID, p.confirm.Value())
		if err != nil {
			p.setNotice(deleteError(err), true)
			return nil
		}
		p.closeConfirm()
		p.deleting = req.PathID
		d := p.deps
		return func() tea.Msg {
			ctx, cancel := d.Context()
			defer cancel()
			return deletedMsg{result: req.Send(ctx)}
		}
	}
	var cmd tea.Cmd
	p.confirm, cmd = p.confirm.Update(msg)
	return cmd
}

func (p *PathsScreen) closeConfirm() {
	p.confirming = false
	p.confirm.Blur()
}

func deleteError(err error) string {
	if errors.Is(err, engine.ErrConfirmation) {
		return `Type "delete" to confirm.`
	}
	return err.Error()
}

func (p *PathsScreen) signOut() tea.Cmd {
	auth := p.deps.Auth
	log := p.deps.Logger()
	d := p.deps
	return func() tea.Msg {
		ctx, cancel := d.Context()
		defer cancel()
		if err := auth.Logout(ctx); err != nil {
			log.Warn("logout", "error", err)
		}
		return screen.SignedOutMsg{}
	}
}

func (p *PathsScreen) dropCache(pathID string) {
	if p.deps.Cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.deps.RequestTimeout)
	defer cancel()
	if err := p.deps.Cache.Delete(ctx, pathID); err != nil {
		p.deps.Logger().Warn("drop cached path", "path", pathID, "error", err)
	}
}

func (p *PathsScreen) clampCursor() {
	n := len(p.deps.Tracker.Paths())
	p.cursor = min(p.cursor, max(n-1, 0))
}

func (p *PathsScreen) setNotice(msg string, isErr bool) {
	p.notice = msg
	p.noticeErr = isErr
}

// selected returns the path under the cursor.
func (p *PathsScreen) selected() (content.Path, bool) {
	list := p.deps.Tracker.Paths()
	if len(list) == 0 {
		return content.Path{}, false
	}
	return list[p.cursor], true
}

func summary(path content.Path) string {
	subs, done := 0, 0
	for _, t := range path.Topics {
		subs += len(t.Submodules)
		done += t.CompletedSubmodules
	}
	return fmt.Sprintf("%d topics · %d/%d submodules", len(path.Topics), done, subs)
}
