package engine

import (
	"context"
	"fmt"

	"github.com/abhisek/cognigen/internal/content"
)

// UpdatePathTitle renames the loaded path.
func (c *Controller) UpdatePathTitle(title string) (*Mutation, error) {
	if err := c.requirePath(); err != nil {
		return nil, err
	}
	if err := content.ValidateTitle(title); err != nil {
		return nil, err
	}
	prev := c.tree.Snapshot().Title
	pathID := c.tree.PathID()

	c.tree.SetTitle(title)
	m := &Mutation{
		Kind:     KindUpdateTitle,
		Entity:   pathID + "/title",
		Label:    "Rename path",
		Phase:    PhaseApplied,
		RevertTo: prev,
	}
	m.send = func(ctx context.Context) (any, error) {
		return c.remote.UpdatePathTitle(ctx, pathID, title)
	}
	m.commit = func(v any) bool {
		p := v.(*content.Path)
		return c.tree.SetTitle(p.Title)
	}
	m.revert = func() { c.tree.SetTitle(prev) }
	return c.issue(m), nil
}

// AddTopic appends a new topic under a temporary id until the server assigns one.
func (c *Controller) AddTopic(t content.Topic) (*Mutation, error) {
	if err := c.requirePath(); err != nil {
		return nil, err
	}
	if err := content.ValidateTopic(t); err != nil {
		return nil, err
	}
	pathID := c.tree.PathID()
	topic := content.NormalizeTopic(t)
	topic.ID = tempPrefix + c.newID()
	topic.ContentGenerated = false
	body := topic.Clone()
	body.ID = ""

	c.tree.InsertTopic(-1, topic)
	m := &Mutation{
		Kind:   KindAddTopic,
		Entity: c.topicEntity(topic.ID),
		Label:  fmt.Sprintf("Add topic %q", topic.Name),
		Phase:  PhaseApplied,
	}
	tempID := topic.ID
	m.send = func(ctx context.Context) (any, error) {
		return c.remote.AddTopic(ctx, pathID, body)
	}
	m.commit = func(v any) bool {
		saved := v.(*content.Topic)
		if saved.ID == "" {
			saved.ID = tempID
		}
		return c.tree.ReplaceTopicID(tempID, *saved)
	}
	m.revert = func() { c.tree.RemoveTopic(tempID) }
	return c.issue(m), nil
}

// UpdateTopic replaces a topic with the full edited state.
func (c *Controller) UpdateTopic(t content.Topic) (*Mutation, error) {
	prev, err := c.lookupTopic(t.ID)
	if err != nil {
		return nil, err
	}
	if IsTemp(t.ID) {
		return nil, fmt.Errorf("topic is still being saved: %w", ErrBusy)
	}
	if err := content.ValidateTopic(t); err != nil {
		return nil, err
	}
	next := keepCompleted(prev, content.NormalizeTopic(t))
	return c.writeTopic(KindUpdateTopic, fmt.Sprintf("Update topic %q", next.Name), prev, next), nil
}

// DeleteSubmodule removes one submodule through a full topic update. Removing
// the last one leaves a placeholder titled after the topic.
func (c *Controller) DeleteSubmodule(topicID, subID string) (*Mutation, error) {
	prev, err := c.lookupTopic(topicID)
	if err != nil {
		return nil, err
	}
	if IsTemp(topicID) {
		return nil, fmt.Errorf("topic is still being saved: %w", ErrBusy)
	}
	next, ok := content.RemoveSubmodule(prev, subID)
	if !ok {
		return nil, fmt.Errorf("submodule %s: %w", subID, ErrNotFound)
	}
	return c.writeTopic(KindDeleteSubmodule, "Delete submodule", prev, next), nil
}

func (c *Controller) writeTopic(kind Kind, label string, prev, next content.Topic) *Mutation {
	pathID := c.tree.PathID()
	c.tree.PatchTopic(next)
	m := &Mutation{
		Kind:     kind,
		Entity:   c.topicEntity(next.ID),
		Label:    label,
		Phase:    PhaseApplied,
		RevertTo: prev,
	}
	body := next.Clone()
	m.send = func(ctx context.Context) (any, error) {
		return c.remote.UpdateTopic(ctx, pathID, body)
	}
	m.commit = func(v any) bool {
		saved := v.(*content.Topic)
		cur, ok := c.tree.Topic(next.ID)
		if !ok {
			return false
		}
		return c.tree.PatchTopic(keepCompleted(cur, *saved))
	}
	m.revert = func() { c.tree.PatchTopic(prev) }
	return c.issue(m)
}

// DeleteTopic removes a topic; a rejected delete puts it back where it was.
func (c *Controller) DeleteTopic(topicID string) (*Mutation, error) {
	if _, err := c.lookupTopic(topicID); err != nil {
		return nil, err
	}
	if IsTemp(topicID) {
		return nil, fmt.Errorf("topic is still being saved: %w", ErrBusy)
	}
	pathID := c.tree.PathID()
	entity := c.topicEntity(topicID)
	removed, at, _ := c.tree.RemoveTopic(topicID)
	m := &Mutation{
		Kind:     KindDeleteTopic,
		Entity:   entity,
		Label:    fmt.Sprintf("Delete topic %q", removed.Name),
		Phase:    PhaseApplied,
		RevertTo: removed,
	}
	m.send = func(ctx context.Context) (any, error) {
		return nil, c.remote.DeleteTopic(ctx, pathID, topicID)
	}
	m.revert = func() {
		if c.tree.TopicIndex(topicID) < 0 {
			c.tree.InsertTopic(at, removed)
		}
	}
	return c.issue(m), nil
}

// MarkSubmoduleComplete sets completed. Completion is monotonic: a failure
// keeps it and only a full reload can clear it. One request per submodule.
func (c *Controller) MarkSubmoduleComplete(topicID, subID string) (*Mutation, error) {
	sub, err := c.lookupSubmodule(topicID, subID)
	if err != nil {
		return nil, err
	}
	if sub.Completed {
		return nil, &content.ValidationError{Field: "completed", Reason: "submodule is already complete"}
	}
	pathID := c.tree.PathID()
	key := "complete:" + subKey(pathID, topicID, subID)
	if c.busy(key) {
		return nil, ErrBusy
	}

	sub.Completed = true
	c.tree.PatchSubmodule(topicID, sub)
	m := &Mutation{
		Kind:   KindMarkComplete,
		Entity: c.topicEntity(topicID) + "/" + subID + "/completed",
		Label:  fmt.Sprintf("Complete %q", sub.Title),
		Phase:  PhaseApplied,
	}
	m.send = func(ctx context.Context) (any, error) {
		return c.remote.MarkComplete(ctx, pathID, topicID, subID)
	}
	m.commit = func(v any) bool {
		p := v.(*content.Path)
		c.tree.SetProgress(p.Progress)
		for _, t := range p.Topics {
			if t.ID != topicID {
				continue
			}
			cur, ok := c.tree.Topic(topicID)
			if !ok {
				return false
			}
			return c.tree.PatchTopic(keepCompleted(cur, t))
		}
		return true
	}
	c.hold(key, m)
	return c.issue(m), nil
}

// hold marks key busy until m resolves.
func (c *Controller) hold(key string, m *Mutation) {
	c.inflight[key] = m
	prev := m.done
	m.done = func() {
		if c.inflight[key] == m {
			delete(c.inflight, key)
		}
		if prev != nil {
			prev()
		}
	}
}

// keepCompleted carries completed flags from cur into next by submodule id.
func keepCompleted(cur, next content.Topic) content.Topic {
	done := make(map[string]bool, len(cur.Submodules))
	for _, s := range cur.Submodules {
		if s.Completed {
			done[s.ID] = true
		}
	}
	n := 0
	for i := range next.Submodules {
		if done[next.Submodules[i].ID] {
			next.Submodules[i].Completed = true
		}
		if next.Submodules[i].Completed {
			n++
		}
	}
	next.CompletedSubmodules = n
	return next
}
