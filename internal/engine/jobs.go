package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/content"
)

// TopicJob is the single-flight lock for topic content generation. The zero
// value is idle; at most one topic can be generating.
type TopicJob struct {
	pathID     string
	topicID    string
	mutationID string
}

// Active reports whether a topic is generating.
func (j TopicJob) Active() bool { return j.topicID != "" }

// Topic returns the generating topic id, or "".
func (j TopicJob) Topic() string { return j.topicID }

// Generating reports whether topicID of pathID holds the lock.
func (j TopicJob) Generating(pathID, topicID string) bool {
	return j.topicID == topicID && j.pathID == pathID
}

// GenerateTopicContent asks the generation service to fill a topic. It is
// rejected locally while any topic is generating, and for topics that already
// have content: generation replaces the topic wholesale, so cells a user added
// after a first generation would be lost.
func (c *Controller) GenerateTopicContent(topicID string) (*Mutation, error) {
	topic, err := c.lookupTopic(topicID)
	if err != nil {
		return nil, err
	}
	if c.topicJob.Active() {
		return nil, fmt.Errorf("%w: topic %s is generating", ErrGenerationInFlight, c.topicJob.Topic())
	}
	if IsTemp(topicID) {
		return nil, fmt.Errorf("topic is still being saved: %w", ErrBusy)
	}
	if topic.ContentGenerated {
		return nil, ErrAlreadyGenerated
	}
	pathID := c.tree.PathID()
	outline := api.OutlineOf(topic)
	m := &Mutation{
		Kind:   KindGenerateContent,
		Entity: c.topicEntity(topicID) + "/content",
		Label:  fmt.Sprintf("Generate content for %q", topic.Name),
		Phase:  PhasePending,
	}
	m.send = func(ctx context.Context) (any, error) {
		return c.remote.GenerateTopicContent(ctx, pathID, topicID, outline)
	}
	m.commit = func(v any) bool {
		generated := v.(*content.Topic)
		if generated.ID == "" {
			generated.ID = topicID
		}
		cur, ok := c.tree.Topic(topicID)
		if !ok {
			return false
		}
		generated.ContentGenerated = true
		if !c.tree.PatchTopic(keepCompleted(cur, *generated)) {
			return false
		}
		c.bumpTopicCells(topicID)
		return true
	}
	c.issue(m)
	c.topicJob = TopicJob{pathID: pathID, topicID: topicID, mutationID: m.ID}
	m.done = func() {
		if c.topicJob.mutationID == m.ID {
			c.topicJob = TopicJob{}
		}
	}
	return m, nil
}

type pathJobState int

const (
	pathIdle pathJobState = iota
	pathPending
	pathCommitted
)

// PathJob is the collection-wide lock for path generation.
type PathJob struct {
	state      pathJobState
	background bool
	course     string
}

// Pending reports whether a generation request is outstanding.
func (j PathJob) Pending() bool { return j.state == pathPending }

// Committed reports whether the last generation succeeded and its path is
// still being built server side.
func (j PathJob) Committed() bool { return j.state == pathCommitted }

// Background reports whether the user dismissed the wait screen.
func (j PathJob) Background() bool { return j.background }

// Course is the course name being generated.
func (j PathJob) Course() string { return j.course }

// DeleteConfirmation is the literal the user types to delete a path.
const DeleteConfirmation = "delete"

// Tracker owns the path collection and the path generation lock.
//
// Listings are tagged with the epoch they were requested under. Resolving a
// generation or a delete starts a new epoch, so a listing requested before
// the server knew about the change cannot overwrite it.
type Tracker struct {
	remote  api.Remote
	paths   []content.Path
	job     PathJob
	epoch   uint64
	session uint64
}

// NewTracker creates a tracker with an empty collection.
func NewTracker(remote api.Remote) *Tracker {
	return &Tracker{remote: remote}
}

// Job returns the path generation state.
func (t *Tracker) Job() PathJob { return t.job }

// Epoch returns the listing epoch. Pass it to ApplyListing with the
// response of a listing requested now.
func (t *Tracker) Epoch() uint64 { return t.epoch }

// ApplyListing installs a listing requested under epoch. A listing from an
// older epoch is dropped and false is returned.
func (t *Tracker) ApplyListing(epoch uint64, paths []content.Path) bool {
	if epoch != t.epoch {
		return false
	}
	t.SetPaths(paths)
	return true
}

// Reset empties the collection and releases the generation lock. Results of
// requests made before Reset are ignored.
func (t *Tracker) Reset() {
	t.paths = nil
	t.job = PathJob{}
	t.epoch++
	t.session++
}

// SetPaths installs a freshly listed collection. A committed job returns to
// idle once no path is in draft.
func (t *Tracker) SetPaths(paths []content.Path) {
	t.paths = make([]content.Path, len(paths))
	for i := range paths {
		t.paths[i] = *paths[i].Clone()
	}
	if t.job.state == pathCommitted && !t.HasDraft() {
		t.job = PathJob{}
	}
}

// Paths returns a copy of the collection.
func (t *Tracker) Paths() []content.Path {
	out := make([]content.Path, len(t.paths))
	for i := range t.paths {
		out[i] = *t.paths[i].Clone()
	}
	return out
}

// HasDraft reports whether any path is still being generated server side.
func (t *Tracker) HasDraft() bool {
	for _, p := range t.paths {
		if p.Status == content.StatusDraft {
			return true
		}
	}
	return false
}

// NeedsPoll reports whether the list should be refreshed until drafts settle.
func (t *Tracker) NeedsPoll() bool {
	return t.HasDraft() || t.job.state == pathCommitted
}

// CanGenerate returns nil when a new path may be requested.
func (t *Tracker) CanGenerate() error {
	if t.job.state == pathPending || t.HasDraft() {
		return fmt.Errorf("%w: a path is already being generated", ErrGenerationInFlight)
	}
	return nil
}

// PathRequest is an outstanding path generation.
type PathRequest struct {
	Params  api.GenerateParams
	remote  api.Remote
	session uint64
}

// Send calls the generation endpoint. It may run on any goroutine.
func (r *PathRequest) Send(ctx context.Context) PathResult {
	p, err := r.remote.GeneratePath(ctx, r.Params)
	return PathResult{Path: p, Err: err, session: r.session}
}

// PathResult is the outcome of a PathRequest.
type PathResult struct {
	Path *content.Path
	Err  error

	session uint64
}

// RequestPath validates params and takes the lock.
func (t *Tracker) RequestPath(params api.GenerateParams) (*PathRequest, error) {
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := t.CanGenerate(); err != nil {
		return nil, err
	}
	t.job = PathJob{state: pathPending, course: params.CourseName}
	return &PathRequest{Params: params, remote: t.remote, session: t.session}, nil
}

// Background dismisses the wait screen. The lock is unchanged.
func (t *Tracker) Background() error {
	if t.job.state != pathPending {
		return fmt.Errorf("no path generation in progress")
	}
	t.job.background = true
	return nil
}

// ResolvePath installs the outcome. On success the new draft path is placed
// first in the collection and its id is returned as the redirect target.
func (t *Tracker) ResolvePath(r PathResult) (string, error) {
	if r.session != t.session {
		return "", ErrSessionEnded
	}
	t.epoch++
	if r.Err != nil {
		t.job = PathJob{}
		return "", r.Err
	}
	p := r.Path.Clone()
	p.Status = content.StatusDraft
	t.paths = append([]content.Path{*p}, t.paths...)
	t.job = PathJob{state: pathCommitted, course: t.job.course}
	return p.ID, nil
}

// DeleteRequest is an outstanding path deletion.
type DeleteRequest struct {
	PathID string
	remote api.Remote
}

// Send calls the delete endpoint.
func (r *DeleteRequest) Send(ctx context.Context) DeleteResult {
	return DeleteResult{PathID: r.PathID, Err: r.remote.DeletePath(ctx, r.PathID)}
}

// DeleteResult is the outcome of a DeleteRequest.
type DeleteResult struct {
	PathID string
	Err    error
}

// RequestDelete checks the typed confirmation. The collection is only changed
// once the server confirms.
func (t *Tracker) RequestDelete(pathID, confirmation string) (*DeleteRequest, error) {
	if strings.ToLower(strings.TrimSpace(confirmation)) != DeleteConfirmation {
		return nil, ErrConfirmation
	}
	found := false
	for _, p := range t.paths {
		if p.ID == pathID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("path %s: %w", pathID, ErrNotFound)
	}
	return &DeleteRequest{PathID: pathID, remote: t.remote}, nil
}

// ResolveDelete drops the path from the collection on success.
func (t *Tracker) ResolveDelete(r DeleteResult) error {
	if r.Err != nil {
		return r.Err
	}
	t.epoch++
	out := t.paths[:0]
	for _, p := range t.paths {
		if p.ID != r.PathID {
			out = append(out, p)
		}
	}
	t.paths = out
	if t.job.state == pathCommitted && !t.HasDraft() {
		t.job = PathJob{}
	}
	return nil
}
