package engine

import (
	"context"
	"fmt"

	"github.com/abhisek/cognigen/internal/content"
)

func reorderTooFew(what string) error {
	return &content.ValidationError{Field: what, Reason: fmt.Sprintf("add at least two %s before rearranging", what)}
}

// ReorderTopics moves the topic at from to position to. Nothing changes
// locally until the server echoes the new order.
func (c *Controller) ReorderTopics(from, to int) (*Mutation, error) {
	if err := c.requirePath(); err != nil {
		return nil, err
	}
	ids := c.tree.TopicIDs()
	if len(ids) < 2 {
		return nil, reorderTooFew("topics")
	}
	order, err := content.Move(ids, from, to)
	if err != nil {
		return nil, &content.ValidationError{Field: "topics", Reason: err.Error()}
	}
	return c.ReorderTopicIDs(order)
}

// ReorderTopicIDs persists a complete topic order.
func (c *Controller) ReorderTopicIDs(order []string) (*Mutation, error) {
	if err := c.requirePath(); err != nil {
		return nil, err
	}
	current := c.tree.TopicIDs()
	if err := checkOrder(current, order, "topics"); err != nil {
		return nil, err
	}
	for _, id := range current {
		if IsTemp(id) {
			return nil, fmt.Errorf("a new topic is still being saved: %w", ErrBusy)
		}
	}
	pathID := c.tree.PathID()
	key := "reorder:" + pathID
	if c.busy(key) {
		return nil, ErrBusy
	}
	ids := append([]string(nil), order...)
	m := &Mutation{
		Kind:     KindReorderTopics,
		Entity:   pathID + "/topics/order",
		Label:    "Rearrange topics",
		Phase:    PhasePending,
		RevertTo: current,
	}
	m.send = func(ctx context.Context) (any, error) {
		return c.remote.ReorderTopics(ctx, pathID, ids)
	}
	m.commit = func(v any) bool {
		echoed := v.([]content.Topic)
		merged := make([]content.Topic, 0, len(echoed))
		for _, t := range echoed {
			if cur, ok := c.tree.Topic(t.ID); ok {
				t = keepCompleted(cur, t)
			}
			merged = append(merged, t)
		}
		return c.tree.ReplaceTopics(merged)
	}
	c.hold(key, m)
	return c.issue(m), nil
}

// ReorderSubmodules moves one submodule within its topic.
func (c *Controller) ReorderSubmodules(topicID string, from, to int) (*Mutation, error) {
	if _, err := c.lookupTopic(topicID); err != nil {
		return nil, err
	}
	ids := c.tree.SubmoduleIDs(topicID)
	if len(ids) < 2 {
		return nil, reorderTooFew("submodules")
	}
	order, err := content.Move(ids, from, to)
	if err != nil {
		return nil, &content.ValidationError{Field: "submodules", Reason: err.Error()}
	}
	return c.ReorderSubmoduleIDs(topicID, order)
}

// ReorderSubmoduleIDs persists a complete submodule order for one topic.
func (c *Controller) ReorderSubmoduleIDs(topicID string, order []string) (*Mutation, error) {
	if _, err := c.lookupTopic(topicID); err != nil {
		return nil, err
	}
	if IsTemp(topicID) {
		return nil, fmt.Errorf("topic is still being saved: %w", ErrBusy)
	}
	current := c.tree.SubmoduleIDs(topicID)
	if err := checkOrder(current, order, "submodules"); err != nil {
		return nil, err
	}
	pathID := c.tree.PathID()
	key := "reorder:" + pathID + "/" + topicID
	if c.busy(key) {
		return nil, ErrBusy
	}
	ids := append([]string(nil), order...)
	m := &Mutation{
		Kind:     KindReorderSubmodules,
		Entity:   c.topicEntity(topicID) + "/submodules/order",
		Label:    "Rearrange submodules",
		Phase:    PhasePending,
		RevertTo: current,
	}
	m.send = func(ctx context.Context) (any, error) {
		return c.remote.ReorderSubmodules(ctx, pathID, topicID, ids)
	}
	m.commit = func(v any) bool {
		echoed := v.([]content.Submodule)
		cur, ok := c.tree.Topic(topicID)
		if !ok {
			return false
		}
		next := cur
		next.Submodules = echoed
		next = keepCompleted(cur, next)
		if !c.tree.ReplaceSubmodules(topicID, next.Submodules) {
			return false
		}
		c.bumpTopicCells(topicID)
		return true
	}
	c.hold(key, m)
	return c.issue(m), nil
}

func checkOrder(current, order []string, what string) error {
	if len(current) < 2 {
		return reorderTooFew(what)
	}
	if !content.IsPermutation(current, order) {
		return &content.ValidationError{Field: what, Reason: "order must list every item exactly once"}
	}
	if content.SameOrder(current, order) {
		return &content.ValidationError{Field: what, Reason: "order is unchanged"}
	}
	return nil
}
