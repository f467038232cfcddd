package app

import (
	"context"

	"github.com/abhisek/cognigen/internal/engine"
	"github.com/abhisek/cognigen/internal/store"
)

// Journal records mutation lifecycles in the local store.
type Journal struct {
	repo store.JournalRepo
}

var _ engine.Journal = (*Journal)(nil)

// NewJournal wraps a journal repository.
func NewJournal(repo store.JournalRepo) *Journal {
	return &Journal{repo: repo}
}

func (j *Journal) Record(ctx context.Context, e engine.JournalEntry) error {
	return j.repo.Append(ctx, store.MutationRecord{
		Timestamp:  e.At,
		MutationID: e.MutationID,
		Kind:       string(e.Kind),
		PathID:     e.PathID,
		Entity:     e.Entity,
		Label:      e.Label,
		Phase:      e.Phase.String(),
		Error:      e.Error,
	})
}
