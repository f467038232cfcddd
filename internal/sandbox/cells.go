package sandbox

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/cognigen/internal/content"
)

// withSubmodule runs fn on the submodule named in the URL and answers
// with the resulting cell list.
func (s *Server) withSubmodule(w http.ResponseWriter, r *http.Request, fn func(sub *content.Submodule) error) {
	s.withPath(w, r, http.StatusOK, func(p *content.Path) (any, error) {
		t, err := topicIn(p, chi.URLParam(r, "topicID"))
		if err != nil {
			return nil, err
		}
		sub, err := submoduleIn(t, chi.URLParam(r, "subID"))
		if err != nil {
			return nil, err
		}
		if err := fn(sub); err != nil {
			return nil, err
		}
		if sub.Cells == nil {
			sub.Cells = []content.Cell{}
		}
		return map[string][]content.Cell{"cells": content.CloneCells(sub.Cells)}, nil
	})
}

func (s *Server) addCell(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Cell     *content.Cell `json:"cell"`
		Position *int          `json:"position"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	cell := content.NewMarkdownCell()
	if body.Cell != nil {
		cell = *body.Cell
	}
	s.withSubmodule(w, r, func(sub *content.Submodule) error {
		at := len(sub.Cells)
		if body.Position != nil && *body.Position >= 0 {
			at = min(*body.Position, len(sub.Cells))
		}
		sub.Cells = slices.Insert(sub.Cells, at, cell)
		return nil
	})
}

func (s *Server) editCell(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content *string `json:"content"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Content == nil {
		writeError(w, fail(http.StatusBadRequest, "content is required"))
		return
	}
	s.withSubmodule(w, r, func(sub *content.Submodule) error {
		i, err := cellIndex(r, sub)
		if err != nil {
			return err
		}
		sub.Cells[i].Markdown = *body.Content
		return nil
	})
}

func (s *Server) deleteCell(w http.ResponseWriter, r *http.Request) {
	s.withSubmodule(w, r, func(sub *content.Submodule) error {
		i, err := cellIndex(r, sub)
		if err != nil {
			return err
		}
		sub.Cells = slices.Delete(sub.Cells, i, i+1)
		return nil
	})
}

// cellIndex parses the index URL parameter and checks that the cell may
// be changed.
func cellIndex(r *http.Request, sub *content.Submodule) (int, error) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || i < 0 || i >= len(sub.Cells) {
		return 0, fail(http.StatusNotFound, "Cell not found")
	}
	if !sub.Cells[i].Mutable() {
		return 0, fail(http.StatusBadRequest, "Resource cells cannot be modified")
	}
	return i, nil
}
