package screen

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/auth"
	"github.com/abhisek/cognigen/internal/engine"
	"github.com/abhisek/cognigen/internal/logger"
	"github.com/abhisek/cognigen/internal/store"
)

// Deps is what screens share: the engine, the session and the remote.
// Everything in it is touched only from the event loop except Remote and
// Cache, which are safe for concurrent use.
type Deps struct {
	Remote     api.Remote
	Auth       *auth.Session
	Controller *engine.Controller
	Tracker    *engine.Tracker

	// Cache keeps the last fetched copy of each path. May be nil.
	Cache store.PathCacheRepo

	Log *logger.Logger

	RequestTimeout  time.Duration
	GenerateTimeout time.Duration
	PollInterval    time.Duration

	// Rand shuffles quiz questions. Nil seeds from the clock.
	Rand *rand.Rand
}

// MutationMsg carries a finished Mutation.Send back to the loop. The app
// resolves it against the controller and broadcasts ResolvedMsg.
type MutationMsg struct {
	Result engine.Result
}

// ResolvedMsg tells the active screen how a mutation ended.
type ResolvedMsg struct {
	Mutation *engine.Mutation
}

// PathGeneratedMsg carries the path generation response. The app resolves
// it against the tracker and broadcasts PathReadyMsg.
type PathGeneratedMsg struct {
	Result engine.PathResult
}

// PathReadyMsg reports a resolved path generation. ID is the new draft.
type PathReadyMsg struct {
	ID  string
	Err error
}

// SignedOutMsg sends the user back to login.
type SignedOutMsg struct{}

// Send runs m off the loop with the timeout its kind calls for.
func (d *Deps) Send(m *engine.Mutation) tea.Cmd {
	timeout := d.RequestTimeout
	switch m.Kind {
	case engine.KindGenerateContent, engine.KindGenerateQuiz:
		timeout = d.GenerateTimeout
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return MutationMsg{Result: m.Send(ctx)}
	}
}

// GeneratePath sends a path request off the loop.
func (d *Deps) GeneratePath(req *engine.PathRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), d.GenerateTimeout)
		defer cancel()
		return PathGeneratedMsg{Result: req.Send(ctx)}
	}
}

// Context returns a request-scoped context for ordinary calls.
func (d *Deps) Context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d.RequestTimeout)
}

// Unauthorized reports whether err means the session is gone.
func Unauthorized(err error) bool {
	return errors.Is(err, api.ErrUnauthorized)
}

// SignOut is the command that routes to login.
func SignOut() tea.Msg {
	return SignedOutMsg{}
}

// Logger returns the logger, or a no-op one when none is set.
func (d *Deps) Logger() *logger.Logger {
	return logger.OrNop(d.Log)
}
