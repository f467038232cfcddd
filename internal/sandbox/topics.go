package sandbox

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/content"
)

type topicBody struct {
	Name                 string              `json:"name"`
	Difficulty           content.Difficulty  `json:"difficulty"`
	EstimatedTimeMinutes int                 `json:"estimatedTimeMinutes"`
	Submodules           []content.Submodule `json:"submodules"`
}

func (b topicBody) topic(id string) content.Topic {
	return content.Topic{
		ID:                   id,
		Name:                 b.Name,
		Difficulty:           b.Difficulty,
		EstimatedTimeMinutes: b.EstimatedTimeMinutes,
		Submodules:           b.Submodules,
	}
}

func (s *Server) addTopic(w http.ResponseWriter, r *http.Request) {
	var body topicBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	s.withPath(w, r, http.StatusCreated, func(p *content.Path) (any, error) {
		t := body.topic(uuid.NewString())
		if err := content.ValidateTopic(t); err != nil {
			return nil, err
		}
		t = content.NormalizeTopic(t)
		p.Topics = append(p.Topics, t)
		refreshProgress(p)
		return map[string]content.Topic{"topic": t}, nil
	})
}

// updateTopic replaces the editable fields. Submodules the caller kept
// retain their server-side cells, quiz and completion.
func (s *Server) updateTopic(w http.ResponseWriter, r *http.Request) {
	var body topicBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	s.withPath(w, r, http.StatusOK, func(p *content.Path) (any, error) {
		cur, err := topicIn(p, chi.URLParam(r, "topicID"))
		if err != nil {
			return nil, err
		}
		next := body.topic(cur.ID)
		if err := content.ValidateTopic(next); err != nil {
			return nil, err
		}
		for i, sub := range next.Submodules {
			if old, err := submoduleIn(cur, sub.ID); err == nil && sub.ID != "" {
				old.Title, old.Summary = sub.Title, sub.Summary
				next.Submodules[i] = *old
			}
		}
		next = content.NormalizeTopic(next)
		next.ContentGenerated = cur.ContentGenerated
		*cur = next
		refreshProgress(p)
		t, _ := topicIn(p, next.ID)
		return map[string]content.Topic{"topic": t.Clone()}, nil
	})
}

func (s *Server) deleteTopic(w http.ResponseWriter, r *http.Request) {
	s.withPath(w, r, http.StatusOK, func(p *content.Path) (any, error) {
		id := chi.URLParam(r, "topicID")
		if _, err := topicIn(p, id); err != nil {
			return nil, err
		}
		p.Topics = slices.DeleteFunc(p.Topics, func(t content.Topic) bool { return t.ID == id })
		refreshProgress(p)
		return map[string]string{"message": "Topic deleted"}, nil
	})
}

func (s *Server) reorderTopics(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"orderedTopicIds"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	s.withPath(w, r, http.StatusOK, func(p *content.Path) (any, error) {
		ordered, err := reorder(p.Topics, body.IDs, func(t content.Topic) string { return t.ID })
		if err != nil {
			return nil, err
		}
		p.Topics = ordered
		return map[string][]content.Topic{"topics": p.Clone().Topics}, nil
	})
}

func (s *Server) reorderSubmodules(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"orderedSubmoduleIds"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	s.withPath(w, r, http.StatusOK, func(p *content.Path) (any, error) {
		t, err := topicIn(p, chi.URLParam(r, "topicID"))
		if err != nil {
			return nil, err
		}
		ordered, err := reorder(t.Submodules, body.IDs, func(s content.Submodule) string { return s.ID })
		if err != nil {
			return nil, err
		}
		t.Submodules = ordered
		return map[string][]content.Submodule{"submodules": t.Clone().Submodules}, nil
	})
}

// reorder arranges items in the order of ids, which must be a permutation
// of the current ids.
func reorder[T any](items []T, ids []string, id func(T) string) ([]T, error) {
	current := make([]string, len(items))
	byID := make(map[string]T, len(items))
	for i, it := range items {
		current[i] = id(it)
		byID[current[i]] = it
	}
	if !content.IsPermutation(current, ids) {
		return nil, fail(http.StatusBadRequest, "Ordered ids must list every item exactly once")
	}
	out := make([]T, len(ids))
	for i, k := range ids {
		out[i] = byID[k]
	}
	return out, nil
}

func (s *Server) markComplete(w http.ResponseWriter, r *http.Request) {
	s.withPath(w, r, http.StatusOK, func(p *content.Path) (any, error) {
		t, err := topicIn(p, chi.URLParam(r, "topicID"))
		if err != nil {
			return nil, err
		}
		sub, err := submoduleIn(t, chi.URLParam(r, "subID"))
		if err != nil {
			return nil, err
		}
		sub.Completed = true
		refreshProgress(p)
		return p.Clone(), nil
	})
}

// generateContent fills every submodule of a topic with generated cells.
// The topic is generated once; the lock is not held during generation.
func (s *Server) generateContent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Submodules []api.SubmoduleOutline `json:"submodules"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	topicID := chi.URLParam(r, "topicID")

	s.mu.Lock()
	p, err := s.pathFor(r)
	var (
		topic content.Topic
		title string
	)
	if err == nil {
		var t *content.Topic
		if t, err = topicIn(p, topicID); err == nil {
			topic, title = t.Clone(), p.DisplayTitle()
			if topic.ContentGenerated {
				err = fail(http.StatusConflict, "Content already generated for this topic")
			}
		}
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	outlines := body.Submodules
	if len(outlines) == 0 {
		outlines = api.OutlineOf(topic)
	}
	cells, err := s.gen.TopicContent(r.Context(), title, topic.Name, outlines)
	if err != nil {
		writeError(w, fail(http.StatusBadGateway, "Content generation failed: "+err.Error()))
		return
	}

	s.withPath(w, r, http.StatusOK, func(p *content.Path) (any, error) {
		t, err := topicIn(p, topicID)
		if err != nil {
			return nil, errPathGone
		}
		for i := range t.Submodules {
			if generated, ok := cells[t.Submodules[i].ID]; ok {
				t.Submodules[i].Cells = generated
			}
		}
		t.ContentGenerated = true
		return map[string]content.Topic{"updatedTopic": t.Clone()}, nil
	})
}

func (s *Server) generateQuiz(w http.ResponseWriter, r *http.Request) {
	topicID, subID := chi.URLParam(r, "topicID"), chi.URLParam(r, "subID")

	s.mu.Lock()
	var sub content.Submodule
	p, err := s.pathFor(r)
	if err == nil {
		var t *content.Topic
		if t, err = topicIn(p, topicID); err == nil {
			var sp *content.Submodule
			if sp, err = submoduleIn(t, subID); err == nil {
				sub = sp.Clone()
			}
		}
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	questions, err := s.gen.Quiz(r.Context(), sub)
	if err != nil {
		writeError(w, fail(http.StatusBadGateway, "Quiz generation failed: "+err.Error()))
		return
	}

	s.withPath(w, r, http.StatusOK, func(p *content.Path) (any, error) {
		t, err := topicIn(p, topicID)
		if err != nil {
			return nil, err
		}
		sp, err := submoduleIn(t, subID)
		if err != nil {
			return nil, err
		}
		sp.MiniQuiz = questions
		return map[string][]content.QuizQuestion{"miniQuiz": questions}, nil
	})
}
