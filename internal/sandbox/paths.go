package sandbox

import (
	"context"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/content"
)

// pathFor returns the caller's path named in the URL. The caller holds s.mu.
func (s *Server) pathFor(r *http.Request) (*content.Path, error) {
	rec := s.paths[chi.URLParam(r, "pathID")]
	if rec == nil || rec.owner != userFrom(r.Context()).ID {
		return nil, fail(http.StatusNotFound, "Learning path not found")
	}
	return rec.path, nil
}

// withPath runs fn on the caller's path under the lock and answers with
// its result.
func (s *Server) withPath(w http.ResponseWriter, r *http.Request, status int, fn func(p *content.Path) (any, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.pathFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := fn(p)
	respond(w, status, v, err)
}

func (s *Server) listPaths(w http.ResponseWriter, r *http.Request) {
	owner := userFrom(r.Context()).ID

	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]*content.Path, 0, len(s.order))
	for _, id := range s.order {
		if rec := s.paths[id]; rec.owner == owner {
			paths = append(paths, rec.path.Clone())
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"paths": paths})
}

func (s *Server) getPath(w http.ResponseWriter, r *http.Request) {
	s.withPath(w, r, http.StatusOK, func(p *content.Path) (any, error) {
		return p.Clone(), nil
	})
}

func (s *Server) updatePathTitle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	s.withPath(w, r, http.StatusOK, func(p *content.Path) (any, error) {
		if err := content.ValidateTitle(body.Title); err != nil {
			return nil, err
		}
		p.Title = body.Title
		return p.Clone(), nil
	})
}

func (s *Server) deletePath(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.pathFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.removePath(p.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Learning path deleted"})
}

// removePath drops a path. The caller holds s.mu.
func (s *Server) removePath(id string) {
	delete(s.paths, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// generatePath answers with a draft at once and fills it in the background.
// A failed generation removes the draft.
func (s *Server) generatePath(w http.ResponseWriter, r *http.Request) {
	var params api.GenerateParams
	if err := decode(r, &params); err != nil {
		writeError(w, err)
		return
	}
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		writeError(w, err)
		return
	}
	owner := userFrom(r.Context()).ID

	draft := &content.Path{
		ID:              uuid.NewString(),
		Title:           params.CourseName + " Path",
		Status:          content.StatusDraft,
		CourseName:      params.CourseName,
		ExperienceLevel: params.ExperienceLevel,
		Goal:            params.Goal,
		Topics:          []content.Topic{},
		CreatedAt:       s.now().UTC(),
	}

	s.mu.Lock()
	s.paths[draft.ID] = &pathRecord{owner: owner, path: draft}
	s.order = append([]string{draft.ID}, s.order...)
	out := draft.Clone()
	s.mu.Unlock()

	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		s.fillPath(draft.ID, params)
	}()

	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) fillPath(pathID string, params api.GenerateParams) {
	ctx, cancel := context.WithTimeout(context.Background(), s.generateTimeout)
	defer cancel()

	outline, err := s.gen.Path(ctx, params)

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.paths[pathID]
	if rec == nil {
		return // deleted while generating
	}
	if err != nil {
		s.log.Warn("path generation failed", "path_id", pathID, "error", err)
		s.removePath(pathID)
		return
	}
	p := rec.path
	if outline.Title != "" {
		p.Title = outline.Title
	}
	p.Description = outline.Description
	p.Topics = outline.Topics
	p.Status = content.StatusActive
	refreshProgress(p)
	s.log.Info("path generated", "path_id", pathID, "topics", len(p.Topics))
}

// refreshProgress recounts completions and derives the path status.
func refreshProgress(p *content.Path) {
	var total, done int
	for i := range p.Topics {
		t := &p.Topics[i]
		t.CompletedSubmodules = 0
		for _, sub := range t.Submodules {
			if sub.Completed {
				t.CompletedSubmodules++
			}
		}
		total += len(t.Submodules)
		done += t.CompletedSubmodules
	}
	if total == 0 {
		p.Progress.Percentage = 0
		return
	}
	p.Progress.Percentage = math.Round(float64(done) * 100 / float64(total))
	switch {
	case p.Status == content.StatusDraft:
	case done == total:
		p.Status = content.StatusCompleted
	default:
		p.Status = content.StatusActive
	}
}

// topicIn finds a topic by id. The caller holds s.mu.
func topicIn(p *content.Path, id string) (*content.Topic, error) {
	for i := range p.Topics {
		if p.Topics[i].ID == id {
			return &p.Topics[i], nil
		}
	}
	return nil, fail(http.StatusNotFound, "Topic not found")
}

// submoduleIn finds a submodule by id. The caller holds s.mu.
func submoduleIn(t *content.Topic, id string) (*content.Submodule, error) {
	for i := range t.Submodules {
		if t.Submodules[i].ID == id {
			return &t.Submodules[i], nil
		}
	}
	return nil, fail(http.StatusNotFound, "Submodule not found")
}

var errPathGone = fail(http.StatusNotFound, "Topic was removed during generation")
