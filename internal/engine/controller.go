package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/logger"
)

// JournalEntry is one lifecycle record of a mutation.
type JournalEntry struct {
	MutationID string
	Kind       Kind
	PathID     string
	Entity     string
	Label      string
	Phase      Phase
	Error      string
	At         time.Time
}

// Journal persists mutation lifecycles for later inspection.
type Journal interface {
	Record(ctx context.Context, e JournalEntry) error
}

// Controller is the only writer of the content tree. Every operation validates
// locally, applies (or not, per kind) and returns a Mutation whose Send the
// caller runs off the loop; the Result comes back through Resolve.
//
// Conflicts on one entity follow "last issued wins": a response for a
// mutation older than the newest one issued on the same entity is discarded.
type Controller struct {
	tree    *content.Tree
	remote  api.Remote
	log     *logger.Logger
	journal Journal
	now     func() time.Time
	newID   func() string

	seq      uint64
	session  uint64
	issued   map[string]uint64
	inflight map[string]*Mutation

	topicJob     TopicJob
	cellClock    int
	cellFloor    int
	cellVersions map[string]int
	editor       EditorSlot[CellRef, string]
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) { c.log = logger.OrNop(l) }
}

// WithJournal records every mutation lifecycle.
func WithJournal(j Journal) Option {
	return func(c *Controller) { c.journal = j }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates a controller over an empty tree.
func NewController(remote api.Remote, opts ...Option) *Controller {
	c := &Controller{
		tree:         content.NewTree(),
		remote:       remote,
		log:          logger.Nop(),
		now:          time.Now,
		newID:        func() string { return gonanoid.Must(12) },
		issued:       make(map[string]uint64),
		inflight:     make(map[string]*Mutation),
		cellVersions: make(map[string]int),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Open loads a fetched path, replacing whatever was shown. In-flight
// responses for the previous path are discarded when they arrive.
func (c *Controller) Open(p *content.Path) {
	c.editor.Close()
	c.tree.Load(p)
	c.bumpAllCells()
}

// Close unloads the tree and ends the session: locks are released and
// responses to mutations issued before Close are discarded.
func (c *Controller) Close() {
	c.tree.Unload()
	c.editor.Close()
	c.session++
	c.topicJob = TopicJob{}
	c.inflight = make(map[string]*Mutation)
}

// Snapshot returns a copy of the current path, or nil while loading.
func (c *Controller) Snapshot() *content.Path {
	return c.tree.Snapshot()
}

// Tree exposes read access for rendering. Callers must not mutate through it.
func (c *Controller) Tree() *content.Tree {
	return c.tree
}

// Remote returns the API the controller writes to.
func (c *Controller) Remote() api.Remote {
	return c.remote
}

// TopicJob returns the topic-generation lock state.
func (c *Controller) TopicJob() TopicJob {
	return c.topicJob
}

// busy reports whether an operation holds the given key.
func (c *Controller) busy(key string) bool {
	_, ok := c.inflight[key]
	return ok
}

func (c *Controller) issue(m *Mutation) *Mutation {
	c.seq++
	m.seq = c.seq
	m.session = c.session
	m.ID = c.newID()
	m.PathID = c.tree.PathID()
	m.IssuedAt = c.now()
	c.issued[m.Entity] = m.seq
	c.record(m)
	c.log.Debug("mutation issued", "id", m.ID, "kind", m.Kind, "entity", m.Entity, "phase", m.Phase)
	return m
}

// Resolve installs the outcome of a mutation's Send. It returns the mutation
// with its final phase.
func (c *Controller) Resolve(r Result) *Mutation {
	m := r.Mutation
	if m.done != nil {
		m.done()
	}

	switch {
	case m.session != c.session, m.PathID != c.tree.PathID():
		m.Phase = PhaseDiscarded
		m.Err = r.Err
	case c.issued[m.Entity] > m.seq:
		// A newer mutation on the same entity owns the outcome.
		m.Phase = PhaseDiscarded
		m.Err = r.Err
	case r.Err != nil:
		m.Phase = PhaseFailed
		m.Err = r.Err
		if m.Policy() == RevertOnFailure && m.revert != nil {
			m.revert()
			m.Reverted = true
		}
	default:
		if m.commit != nil && !m.commit(r.Value) {
			m.Phase = PhaseDiscarded
		} else {
			m.Phase = PhaseCommitted
		}
	}

	c.record(m)
	switch m.Phase {
	case PhaseFailed:
		c.log.Warn("mutation failed", "id", m.ID, "kind", m.Kind, "entity", m.Entity, "reverted", m.Reverted, "error", m.Err)
	case PhaseDiscarded:
		c.log.Info("mutation discarded", "id", m.ID, "kind", m.Kind, "entity", m.Entity)
	default:
		c.log.Debug("mutation committed", "id", m.ID, "kind", m.Kind, "entity", m.Entity)
	}
	return m
}

// Rollback restores the state a failed mutation replaced. It works for every
// kind that applies optimistically, except monotonic completion.
func (c *Controller) Rollback(m *Mutation) error {
	if m.Phase != PhaseFailed {
		return ErrNotFailed
	}
	if m.Reverted {
		return nil
	}
	switch m.Policy() {
	case NeverRevert:
		return fmt.Errorf("%w: completion is only reset by a server refresh", ErrNotPermitted)
	case NotApplied:
		return nil
	}
	if m.session != c.session || m.PathID != c.tree.PathID() || c.issued[m.Entity] > m.seq {
		return fmt.Errorf("%w: entity changed since the failure", ErrStaleRef)
	}
	if m.revert != nil {
		m.revert()
	}
	m.Reverted = true
	c.record(m)
	c.log.Info("mutation rolled back", "id", m.ID, "kind", m.Kind, "entity", m.Entity)
	return nil
}

func (c *Controller) record(m *Mutation) {
	if c.journal == nil {
		return
	}
	e := JournalEntry{
		MutationID: m.ID,
		Kind:       m.Kind,
		PathID:     m.PathID,
		Entity:     m.Entity,
		Label:      m.Label,
		Phase:      m.Phase,
		At:         c.now(),
	}
	if m.Err != nil {
		e.Error = m.Err.Error()
	}
	if err := c.journal.Record(context.Background(), e); err != nil {
		c.log.Warn("journal write failed", "id", m.ID, "error", err)
	}
}

func (c *Controller) requirePath() error {
	if !c.tree.Loaded() {
		return ErrNoPath
	}
	return nil
}

func (c *Controller) lookupTopic(id string) (content.Topic, error) {
	if err := c.requirePath(); err != nil {
		return content.Topic{}, err
	}
	t, ok := c.tree.Topic(id)
	if !ok {
		return content.Topic{}, fmt.Errorf("topic %s: %w", id, ErrNotFound)
	}
	return t, nil
}

func (c *Controller) lookupSubmodule(topicID, subID string) (content.Submodule, error) {
	if _, err := c.lookupTopic(topicID); err != nil {
		return content.Submodule{}, err
	}
	s, ok := c.tree.Submodule(topicID, subID)
	if !ok {
		return content.Submodule{}, fmt.Errorf("submodule %s: %w", subID, ErrNotFound)
	}
	return s, nil
}

const tempPrefix = "tmp-"

// IsTemp reports whether id is a local placeholder awaiting the server id.
func IsTemp(id string) bool {
	return strings.HasPrefix(id, tempPrefix)
}

func (c *Controller) topicEntity(topicID string) string {
	return c.tree.PathID() + "/topic/" + topicID
}

func subKey(pathID, topicID, subID string) string {
	return pathID + "/" + topicID + "/" + subID
}
