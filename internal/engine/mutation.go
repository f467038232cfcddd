package engine

import (
	"context"
	"time"

	"github.com/abhisek/cognigen/internal/api"
)

// Kind names a state-changing operation.
type Kind string

const (
	KindUpdateTitle       Kind = "update_title"
	KindAddTopic          Kind = "add_topic"
	KindUpdateTopic       Kind = "update_topic"
	KindDeleteTopic       Kind = "delete_topic"
	KindDeleteSubmodule   Kind = "delete_submodule"
	KindMarkComplete      Kind = "mark_complete"
	KindAddCell           Kind = "add_cell"
	KindEditCell          Kind = "edit_cell"
	KindDeleteCell        Kind = "delete_cell"
	KindReorderTopics     Kind = "reorder_topics"
	KindReorderSubmodules Kind = "reorder_submodules"
	KindGenerateContent   Kind = "generate_content"
	KindGenerateQuiz      Kind = "generate_quiz"
)

// RevertPolicy decides what happens to optimistic state when the remote rejects it.
type RevertPolicy int

const (
	// KeepOnFailure leaves the optimistic state; RevertTo is exposed for an
	// explicit Rollback.
	KeepOnFailure RevertPolicy = iota

	// RevertOnFailure restores the previous state automatically.
	RevertOnFailure

	// NeverRevert is for monotonic state. Only a server refresh resets it.
	NeverRevert

	// NotApplied marks operations that never touch the tree before the response.
	NotApplied
)

// Policies is the failure policy per kind. Structural changes (creating or
// removing topics, submodules, cells) revert; field edits keep the user's text.
var Policies = map[Kind]RevertPolicy{
	KindUpdateTitle:       KeepOnFailure,
	KindAddTopic:          RevertOnFailure,
	KindUpdateTopic:       KeepOnFailure,
	KindDeleteTopic:       RevertOnFailure,
	KindDeleteSubmodule:   RevertOnFailure,
	KindMarkComplete:      NeverRevert,
	KindAddCell:           RevertOnFailure,
	KindEditCell:          KeepOnFailure,
	KindDeleteCell:        RevertOnFailure,
	KindReorderTopics:     NotApplied,
	KindReorderSubmodules: NotApplied,
	KindGenerateContent:   NotApplied,
	KindGenerateQuiz:      NotApplied,
}

// Phase is the lifecycle of one mutation.
type Phase int

const (
	PhasePending   Phase = iota // Sent, nothing applied locally
	PhaseApplied                // Optimistic state applied, response outstanding
	PhaseCommitted              // Server state installed
	PhaseFailed                 // Remote rejected; see Err and RevertTo
	PhaseDiscarded              // Response ignored: stale path, gone entity or superseded
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseApplied:
		return "applied"
	case PhaseCommitted:
		return "committed"
	case PhaseFailed:
		return "failed"
	case PhaseDiscarded:
		return "discarded"
	}
	return "unknown"
}

// Mutation is one user action in flight. It is created and resolved on the
// event loop; only Send runs elsewhere.
type Mutation struct {
	// ID is unique per mutation and doubles as the request idempotency key.
	ID string

	Kind   Kind
	PathID string

	// Entity identifies what the mutation writes, for conflict ordering.
	Entity string

	// Label is a short human description for notifications.
	Label string

	Phase Phase
	Err   error

	// RevertTo is the entity value before the optimistic apply: a string for
	// titles, content.Topic for topics, []content.Cell for cells. Nil when the
	// mutation created the entity.
	RevertTo any

	// Reverted is set once the previous state has been restored.
	Reverted bool

	IssuedAt time.Time

	seq     uint64
	session uint64
	send    func(ctx context.Context) (any, error)
	commit  func(v any) bool
	revert  func()
	done    func()
}

// Send performs the remote call. It does not touch the tree and may run on
// any goroutine.
func (m *Mutation) Send(ctx context.Context) Result {
	ctx = api.WithIdempotencyKey(ctx, m.ID)
	v, err := m.send(ctx)
	return Result{Mutation: m, Value: v, Err: err}
}

// Policy returns the failure policy of the mutation's kind.
func (m *Mutation) Policy() RevertPolicy {
	return Policies[m.Kind]
}

// Result is the outcome of Send, delivered back to the event loop.
type Result struct {
	Mutation *Mutation
	Value    any
	Err      error
}
