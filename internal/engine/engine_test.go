package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/content"
)

func fixturePath() *content.Path {
	return &content.Path{
		ID:     "p1",
		Title:  "Go",
		Status: content.StatusActive,
		Topics: []content.Topic{
			{
				ID: "t1", Name: "Basics", Difficulty: content.Medium, EstimatedTimeMinutes: 60,
				Submodules: []content.Submodule{
					{ID: "s1", Title: "Syntax", Cells: []content.Cell{
						{Type: content.CellMarkdown, Markdown: "zero"},
						{Type: content.CellResource, Resources: []content.Resource{{URL: "u", Source: "web", Title: "r"}}},
						{Type: content.CellMarkdown, Markdown: "two"},
						{Type: content.CellMarkdown, Markdown: "three"},
					}},
					{ID: "s2", Title: "Types"},
				},
			},
			{ID: "t2", Name: "Concurrency", Difficulty: content.Hard, Submodules: []content.Submodule{{ID: "s3", Title: "Goroutines"}}},
			{ID: "t3", Name: "Testing", Difficulty: content.Easy, Submodules: []content.Submodule{{ID: "s4", Title: "Tables"}}},
		},
	}
}

func newTestController(t *testing.T) (*Controller, *api.Mock) {
	t.Helper()
	mock := api.NewMock()
	c := NewController(mock)
	n := 0
	c.newID = func() string { n++; return fmt.Sprintf("id%d", n) }
	c.Open(fixturePath())
	return c, mock
}

// run sends and resolves in one step, as the event loop would.
func run(c *Controller, m *Mutation) *Mutation {
	return c.Resolve(m.Send(context.Background()))
}

func topicNames(c *Controller) []string {
	var out []string
	for _, t := range c.Snapshot().Topics {
		out = append(out, t.Name)
	}
	return out
}

func TestTopicKeepsAtLeastOneSubmodule(t *testing.T) {
	c, mock := newTestController(t)

	m, err := c.DeleteSubmodule("t1", "s1")
	require.NoError(t, err)
	tp, _ := c.Tree().Topic("t1")
	require.Len(t, tp.Submodules, 1)
	mock.Enqueue("UpdateTopic", &tp, nil)
	run(c, m)

	m, err = c.DeleteSubmodule("t1", "s2")
	require.NoError(t, err)
	tp, _ = c.Tree().Topic("t1")
	require.Len(t, tp.Submodules, 1)
	assert.Equal(t, "Basics", tp.Submodules[0].Title)
	assert.Equal(t, content.Medium, tp.Difficulty)

	mock.Enqueue("UpdateTopic", &tp, nil)
	got := run(c, m)
	assert.Equal(t, PhaseCommitted, got.Phase)

	tp, _ = c.Tree().Topic("t1")
	require.Len(t, tp.Submodules, 1)
	assert.Equal(t, "Basics", tp.Submodules[0].Title)

	body := mock.Calls[len(mock.Calls)-1].Args[1].(content.Topic)
	assert.Len(t, body.Submodules, 1, "full topic state is sent")
}

func TestUpdateTopicValidatesBeforeNetwork(t *testing.T) {
	c, mock := newTestController(t)
	tp, _ := c.Tree().Topic("t2")
	tp.Name = "  "
	_, err := c.UpdateTopic(tp)
	var verr *content.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, mock.Calls)
	assert.Equal(t, []string{"Basics", "Concurrency", "Testing"}, topicNames(c))
}

func TestUpdateTopicFailureKeepsOptimisticState(t *testing.T) {
	c, mock := newTestController(t)
	tp, _ := c.Tree().Topic("t2")
	prev := tp
	tp.Name = "Channels"
	m, err := c.UpdateTopic(tp)
	require.NoError(t, err)
	assert.Equal(t, PhaseApplied, m.Phase)
	assert.Equal(t, "Channels", topicNames(c)[1], "applied before response")

	mock.Enqueue("UpdateTopic", nil, &api.Error{Status: 500, Message: "boom"})
	run(c, m)
	assert.Equal(t, PhaseFailed, m.Phase)
	assert.False(t, m.Reverted)
	assert.Equal(t, "Channels", topicNames(c)[1])
	assert.Equal(t, prev.Name, m.RevertTo.(content.Topic).Name)

	require.NoError(t, c.Rollback(m))
	assert.Equal(t, "Concurrency", topicNames(c)[1])
	assert.ErrorIs(t, c.Rollback(&Mutation{Phase: PhaseCommitted}), ErrNotFailed)
}

func TestAddTopicCommitAndRevert(t *testing.T) {
	c, mock := newTestController(t)

	m, err := c.AddTopic(content.Topic{Name: "Generics"})
	require.NoError(t, err)
	ids := c.Tree().TopicIDs()
	require.Len(t, ids, 4)
	assert.True(t, IsTemp(ids[3]))

	_, err = c.UpdateTopic(content.Topic{ID: ids[3], Name: "x"})
	assert.ErrorIs(t, err, ErrBusy)

	saved := content.Topic{ID: "t9", Name: "Generics", Difficulty: content.Medium, Submodules: []content.Submodule{{ID: "x", Title: "Generics"}}}
	mock.Enqueue("AddTopic", &saved, nil)
	run(c, m)
	assert.Equal(t, PhaseCommitted, m.Phase)
	assert.Equal(t, "t9", c.Tree().TopicIDs()[3])

	body := mock.Calls[0].Args[1].(content.Topic)
	assert.Empty(t, body.ID)
	assert.Len(t, body.Submodules, 1, "placeholder synthesized before send")

	m, err = c.AddTopic(content.Topic{Name: "Doomed"})
	require.NoError(t, err)
	mock.Enqueue("AddTopic", nil, errors.New("offline"))
	run(c, m)
	assert.Equal(t, PhaseFailed, m.Phase)
	assert.True(t, m.Reverted)
	assert.Len(t, c.Tree().TopicIDs(), 4)
}

func TestDeleteTopicRevertsInPlace(t *testing.T) {
	c, mock := newTestController(t)
	m, err := c.DeleteTopic("t2")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t3"}, c.Tree().TopicIDs())

	mock.Enqueue("DeleteTopic", nil, &api.Error{Status: 403})
	run(c, m)
	assert.True(t, m.Reverted)
	assert.Equal(t, []string{"t1", "t2", "t3"}, c.Tree().TopicIDs())
}

func TestCompletedIsMonotonic(t *testing.T) {
	c, mock := newTestController(t)

	m, err := c.MarkSubmoduleComplete("t1", "s2")
	require.NoError(t, err)
	_, err = c.MarkSubmoduleComplete("t1", "s2")
	var verr *content.ValidationError
	assert.ErrorAs(t, err, &verr, "already complete locally")

	mock.Enqueue("MarkComplete", nil, errors.New("timeout"))
	run(c, m)
	assert.Equal(t, PhaseFailed, m.Phase)
	sub, _ := c.Tree().Submodule("t1", "s2")
	assert.True(t, sub.Completed, "failure keeps completion")
	assert.ErrorIs(t, c.Rollback(m), ErrNotPermitted)

	// A topic update that carries completed=false does not clear it.
	tp, _ := c.Tree().Topic("t1")
	for i := range tp.Submodules {
		tp.Submodules[i].Completed = false
	}
	m, err = c.UpdateTopic(tp)
	require.NoError(t, err)
	sub, _ = c.Tree().Submodule("t1", "s2")
	assert.True(t, sub.Completed)

	echo := tp
	mock.Enqueue("UpdateTopic", &echo, nil)
	run(c, m)
	sub, _ = c.Tree().Submodule("t1", "s2")
	assert.True(t, sub.Completed, "server echo without the flag does not clear it")

	// Only a full reload resets it.
	c.Open(fixturePath())
	sub, _ = c.Tree().Submodule("t1", "s2")
	assert.False(t, sub.Completed)
}

func TestMarkCompleteInstallsServerProgress(t *testing.T) {
	c, mock := newTestController(t)
	m, err := c.MarkSubmoduleComplete("t2", "s3")
	require.NoError(t, err)

	server := fixturePath()
	server.Progress.Percentage = 20
	server.Topics[1].Submodules[0].Completed = true
	server.Topics[1].CompletedSubmodules = 1
	mock.Enqueue("MarkComplete", server, nil)
	run(c, m)

	assert.Equal(t, PhaseCommitted, m.Phase)
	assert.Equal(t, 20.0, c.Snapshot().Progress.Percentage)
	tp, _ := c.Tree().Topic("t2")
	assert.Equal(t, 100, tp.ProgressPercent())
}

func TestReorderTopicsRoundTrip(t *testing.T) {
	c, mock := newTestController(t)

	m, err := c.ReorderTopics(0, 2)
	require.NoError(t, err)
	assert.Equal(t, PhasePending, m.Phase)
	assert.Equal(t, []string{"t1", "t2", "t3"}, c.Tree().TopicIDs(), "not applied before the echo")

	_, err = c.ReorderTopics(1, 0)
	assert.ErrorIs(t, err, ErrBusy)

	echo := fixturePath().Topics
	echo = []content.Topic{echo[1], echo[2], echo[0]}
	mock.Enqueue("ReorderTopics", echo, nil)
	run(c, m)
	assert.Equal(t, []string{"t2", "t3", "t1"}, c.Tree().TopicIDs())
	sent := mock.Calls[0].Args[1].([]string)
	assert.Equal(t, []string{"t2", "t3", "t1"}, sent, "complete order is sent")

	m, err = c.ReorderTopics(2, 0)
	require.NoError(t, err)
	mock.Enqueue("ReorderTopics", nil, &api.Error{Status: 500})
	run(c, m)
	assert.Equal(t, PhaseFailed, m.Phase)
	assert.Equal(t, []string{"t2", "t3", "t1"}, c.Tree().TopicIDs(), "failure leaves pre-drag order")
}

func TestReorderValidation(t *testing.T) {
	c, _ := newTestController(t)
	_, err := c.ReorderSubmodules("t2", 0, 0)
	var verr *content.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "at least two")

	_, err = c.ReorderTopicIDs([]string{"t1", "t2"})
	assert.ErrorAs(t, err, &verr)
	_, err = c.ReorderTopicIDs([]string{"t1", "t2", "t3"})
	assert.ErrorAs(t, err, &verr)
}

func TestReorderWaitsForUnsavedTopic(t *testing.T) {
	c, mock := newTestController(t)
	add, err := c.AddTopic(content.Topic{Name: "Generics"})
	require.NoError(t, err)

	_, err = c.ReorderTopics(3, 0)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Empty(t, mock.Calls, "nothing sent while a temp id is in the order")

	saved := content.Topic{ID: "t9", Name: "Generics", Submodules: []content.Submodule{{ID: "s9", Title: "Generics"}}}
	mock.Enqueue("AddTopic", &saved, nil)
	run(c, add)

	m, err := c.ReorderTopics(3, 0)
	require.NoError(t, err)
	mock.Enqueue("ReorderTopics", c.Snapshot().Topics, nil)
	run(c, m)
	sent := mock.Calls[len(mock.Calls)-1].Args[1].([]string)
	assert.Equal(t, []string{"t9", "t1", "t2", "t3"}, sent)
}

func TestServerTopicWithoutSubmodulesGetsPlaceholder(t *testing.T) {
	c, mock := newTestController(t)
	tp, _ := c.Tree().Topic("t2")
	tp.Name = "Channels"
	m, err := c.UpdateTopic(tp)
	require.NoError(t, err)

	mock.Enqueue("UpdateTopic", &content.Topic{ID: "t2", Name: "Channels"}, nil)
	run(c, m)
	assert.Equal(t, PhaseCommitted, m.Phase)
	got, _ := c.Tree().Topic("t2")
	require.Len(t, got.Submodules, 1)
	assert.Equal(t, "Channels", got.Submodules[0].Title)

	p := fixturePath()
	p.Topics[2].Submodules = nil
	c.Open(p)
	opened, _ := c.Tree().Topic("t3")
	assert.Len(t, opened.Submodules, 1)
}

func TestCloseEndsSession(t *testing.T) {
	c, mock := newTestController(t)
	gen, err := c.GenerateTopicContent("t1")
	require.NoError(t, err)
	reorder, err := c.ReorderTopics(0, 1)
	require.NoError(t, err)

	c.Close()
	assert.False(t, c.TopicJob().Active())
	c.Open(fixturePath())

	next, err := c.ReorderTopics(0, 2)
	require.NoError(t, err, "reorder lock released by Close")

	mock.Enqueue("GenerateTopicContent", &content.Topic{ID: "t1", Name: "Basics"}, nil)
	mock.Enqueue("ReorderTopics", []content.Topic{{ID: "t2"}, {ID: "t1"}, {ID: "t3"}}, nil)
	assert.Equal(t, PhaseDiscarded, run(c, gen).Phase)
	assert.Equal(t, PhaseDiscarded, run(c, reorder).Phase)
	assert.Equal(t, []string{"t1", "t2", "t3"}, c.Tree().TopicIDs())

	_, err = c.ReorderTopics(1, 0)
	assert.ErrorIs(t, err, ErrBusy, "late response does not release the new hold")
	assert.NotNil(t, next)
}

func TestReorderSubmodulesUsesServerEcho(t *testing.T) {
	c, mock := newTestController(t)
	m, err := c.ReorderSubmodules("t1", 1, 0)
	require.NoError(t, err)
	mock.Enqueue("ReorderSubmodules", []content.Submodule{{ID: "s2", Title: "Types"}, {ID: "s1", Title: "Syntax"}}, nil)
	run(c, m)
	assert.Equal(t, []string{"s2", "s1"}, c.Tree().SubmoduleIDs("t1"))
}

func TestTopicGenerationSingleFlight(t *testing.T) {
	for _, fail := range []bool{false, true} {
		t.Run(fmt.Sprintf("fail=%v", fail), func(t *testing.T) {
			c, mock := newTestController(t)
			a, err := c.GenerateTopicContent("t1")
			require.NoError(t, err)
			assert.True(t, c.TopicJob().Generating("p1", "t1"))

			_, err = c.GenerateTopicContent("t2")
			assert.ErrorIs(t, err, ErrGenerationInFlight)
			assert.Empty(t, mock.Calls, "no request sent while locked")

			if fail {
				mock.Enqueue("GenerateTopicContent", nil, errors.New("llm down"))
			} else {
				mock.Enqueue("GenerateTopicContent", &content.Topic{ID: "t1", Name: "Basics", ContentGenerated: true,
					Submodules: []content.Submodule{{ID: "s1", Title: "Syntax", Cells: []content.Cell{content.NewMarkdownCell()}}}}, nil)
			}
			run(c, a)
			assert.False(t, c.TopicJob().Active(), "lock released either way")

			_, err = c.GenerateTopicContent("t2")
			assert.NoError(t, err)

			if !fail {
				tp, _ := c.Tree().Topic("t1")
				assert.True(t, tp.ContentGenerated)
				assert.Equal(t, 1, mock.CallCount("GenerateTopicContent"))
			}
		})
	}
}

func TestGeneratedTopicIsNotRegenerated(t *testing.T) {
	c, _ := newTestController(t)
	p := fixturePath()
	p.Topics[0].ContentGenerated = true
	c.Open(p)
	_, err := c.GenerateTopicContent("t1")
	assert.ErrorIs(t, err, ErrAlreadyGenerated)
}

func TestStaleResponsesAreDiscarded(t *testing.T) {
	c, mock := newTestController(t)

	// Navigation to another path.
	tp, _ := c.Tree().Topic("t2")
	tp.Name = "Renamed"
	m, err := c.UpdateTopic(tp)
	require.NoError(t, err)
	other := fixturePath()
	other.ID = "p2"
	c.Open(other)
	mock.Enqueue("UpdateTopic", &tp, nil)
	run(c, m)
	assert.Equal(t, PhaseDiscarded, m.Phase)
	assert.Equal(t, "Concurrency", topicNames(c)[1])

	// Entity deleted while the response was in flight.
	c.Open(fixturePath())
	tp, _ = c.Tree().Topic("t3")
	tp.Name = "Fuzzing"
	upd, err := c.UpdateTopic(tp)
	require.NoError(t, err)
	del, err := c.DeleteTopic("t3")
	require.NoError(t, err)
	mock.Enqueue("DeleteTopic", nil, nil)
	run(c, del)
	mock.Enqueue("UpdateTopic", &tp, nil)
	run(c, upd)
	assert.Equal(t, PhaseDiscarded, upd.Phase)
	assert.Equal(t, []string{"t1", "t2"}, c.Tree().TopicIDs(), "dead entity not re-inserted")
}

func TestLastIssuedWins(t *testing.T) {
	c, mock := newTestController(t)
	tp, _ := c.Tree().Topic("t2")

	first := tp
	first.Name = "First"
	m1, err := c.UpdateTopic(first)
	require.NoError(t, err)
	second := tp
	second.Name = "Second"
	m2, err := c.UpdateTopic(second)
	require.NoError(t, err)

	// The later-issued request resolves first, then the older one arrives.
	mock.Enqueue("UpdateTopic", &first, nil)
	mock.Enqueue("UpdateTopic", &second, nil)
	r1 := m1.Send(context.Background())
	r2 := m2.Send(context.Background())
	c.Resolve(r2)
	c.Resolve(r1)

	assert.Equal(t, PhaseCommitted, m2.Phase)
	assert.Equal(t, PhaseDiscarded, m1.Phase)
	assert.Equal(t, "Second", topicNames(c)[1])
}

func TestUpdatePathTitle(t *testing.T) {
	c, mock := newTestController(t)
	_, err := c.UpdatePathTitle(" ")
	assert.Error(t, err)

	m, err := c.UpdatePathTitle("Go in depth")
	require.NoError(t, err)
	assert.Equal(t, "Go in depth", c.Snapshot().Title)
	mock.Enqueue("UpdatePathTitle", nil, errors.New("nope"))
	run(c, m)
	assert.Equal(t, "Go in depth", c.Snapshot().Title)
	require.NoError(t, c.Rollback(m))
	assert.Equal(t, "Go", c.Snapshot().Title)
}

func TestNoPathLoaded(t *testing.T) {
	c := NewController(api.NewMock())
	_, err := c.UpdatePathTitle("x")
	assert.ErrorIs(t, err, ErrNoPath)
	_, err = c.ReorderTopics(0, 1)
	assert.ErrorIs(t, err, ErrNoPath)
}

type memJournal struct{ entries []JournalEntry }

func (j *memJournal) Record(_ context.Context, e JournalEntry) error {
	j.entries = append(j.entries, e)
	return nil
}

func TestJournalRecordsLifecycle(t *testing.T) {
	j := &memJournal{}
	mock := api.NewMock()
	c := NewController(mock, WithJournal(j))
	c.Open(fixturePath())

	m, err := c.DeleteTopic("t1")
	require.NoError(t, err)
	mock.Enqueue("DeleteTopic", nil, nil)
	run(c, m)

	require.Len(t, j.entries, 2)
	assert.Equal(t, PhaseApplied, j.entries[0].Phase)
	assert.Equal(t, PhaseCommitted, j.entries[1].Phase)
	assert.Equal(t, m.ID, j.entries[1].MutationID)
}
