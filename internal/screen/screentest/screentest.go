// Package screentest builds screen dependencies over api.Mock and runs
// commands synchronously for screen tests.
package screentest

import (
	"context"
	"math/rand/v2"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/auth"
	"github.com/abhisek/cognigen/internal/engine"
	"github.com/abhisek/cognigen/internal/screen"
)

// AuthStub answers the auth endpoints with a fixed user or error.
type AuthStub struct {
	User *api.User
	Err  error

	Logins  int
	Signups int
}

func (a *AuthStub) Me(context.Context) (*api.User, error) {
	if a.User == nil {
		return nil, api.ErrUnauthorized
	}
	return a.User, a.Err
}

func (a *AuthStub) Login(_ context.Context, email, _ string) (*api.User, error) {
	a.Logins++
	if a.Err != nil {
		return nil, a.Err
	}
	a.User = &api.User{ID: "u1", Name: "Ada", Email: email}
	return a.User, nil
}

func (a *AuthStub) Signup(_ context.Context, name, email, _ string) (*api.User, error) {
	a.Signups++
	if a.Err != nil {
		return nil, a.Err
	}
	a.User = &api.User{ID: "u1", Name: name, Email: email}
	return a.User, nil
}

func (a *AuthStub) Logout(context.Context) error {
	a.User = nil
	return nil
}

// Deps returns dependencies wired to remote with short timeouts and a fixed
// shuffle seed.
func Deps(remote *api.Mock, stub *AuthStub) *screen.Deps {
	if stub == nil {
		stub = &AuthStub{}
	}
	return &screen.Deps{
		Remote:          remote,
		Auth:            auth.NewSession(stub, nil, nil),
		Controller:      engine.NewController(remote),
		Tracker:         engine.NewTracker(remote),
		RequestTimeout:  time.Second,
		GenerateTimeout: time.Second,
		PollInterval:    time.Millisecond,
		Rand:            rand.New(rand.NewPCG(1, 2)),
	}
}

// Run executes cmd and every command it batches, returning the messages in
// order. Ticks are not waited on; their messages are skipped so polling
// loops terminate.
func Run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := runWithTimeout(cmd)
	switch msg := msg.(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, Run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// tickWait bounds how long Run waits on one command. tea.Tick commands block
// for their interval; anything longer is treated as a timer and dropped.
const tickWait = 200 * time.Millisecond

func runWithTimeout(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(tickWait):
		return nil
	}
}

// Find returns the first message of type T.
func Find[T any](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
