package engine

import (
	"context"
	"fmt"

	"github.com/abhisek/cognigen/internal/content"
)

// QuizState is the per-submodule quiz lifecycle.
type QuizState int

const (
	QuizAbsent QuizState = iota
	QuizGenerating
	QuizReady
)

func (s QuizState) String() string {
	switch s {
	case QuizGenerating:
		return "generating"
	case QuizReady:
		return "ready"
	}
	return "absent"
}

func quizKey(pathID, topicID, subID string) string {
	return "quiz:" + subKey(pathID, topicID, subID)
}

// QuizState reports where a submodule's quiz is in its lifecycle.
func (c *Controller) QuizState(topicID, subID string) QuizState {
	if c.busy(quizKey(c.tree.PathID(), topicID, subID)) {
		return QuizGenerating
	}
	sub, ok := c.tree.Submodule(topicID, subID)
	if ok && sub.HasQuiz() {
		return QuizReady
	}
	return QuizAbsent
}

// GenerateQuiz moves absent to generating. A second request while generating
// is rejected with ErrBusy; a ready quiz must be deleted first.
func (c *Controller) GenerateQuiz(topicID, subID string) (*Mutation, error) {
	sub, err := c.lookupSubmodule(topicID, subID)
	if err != nil {
		return nil, err
	}
	switch c.QuizState(topicID, subID) {
	case QuizGenerating:
		return nil, ErrBusy
	case QuizReady:
		return nil, ErrQuizExists
	}
	pathID := c.tree.PathID()
	m := &Mutation{
		Kind:   KindGenerateQuiz,
		Entity: c.topicEntity(topicID) + "/" + subID + "/quiz",
		Label:  fmt.Sprintf("Generate quiz for %q", sub.Title),
		Phase:  PhasePending,
	}
	m.send = func(ctx context.Context) (any, error) {
		return c.remote.GenerateQuiz(ctx, pathID, topicID, subID)
	}
	m.commit = func(v any) bool {
		qs := v.([]content.QuizQuestion)
		cur, ok := c.tree.Submodule(topicID, subID)
		if !ok {
			return false
		}
		cur.MiniQuiz = qs
		return c.tree.PatchSubmodule(topicID, cur)
	}
	c.hold(quizKey(pathID, topicID, subID), m)
	return c.issue(m), nil
}

// DeleteQuiz moves ready to absent. It is local only; regenerating is a
// separate GenerateQuiz call the user may decline.
func (c *Controller) DeleteQuiz(topicID, subID string) error {
	sub, err := c.lookupSubmodule(topicID, subID)
	if err != nil {
		return err
	}
	if c.QuizState(topicID, subID) != QuizReady {
		return ErrNoQuiz
	}
	sub.MiniQuiz = nil
	c.tree.PatchSubmodule(topicID, sub)
	c.log.Debug("quiz deleted", "topic_id", topicID, "sub_id", subID)
	return nil
}
