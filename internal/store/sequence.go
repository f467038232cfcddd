package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	entsql "entgo.io/ent/dialect/sql"
)

// sequence numbers journal and LLM request rows from one counter so the two
// logs interleave in write order. The counter is a row in the database, so
// the TUI and a sandbox sharing one file never hand out the same number.
type sequence struct {
	mu  sync.Mutex
	drv *entsql.Driver
}

func newSequence(ctx context.Context, drv *entsql.Driver) (*sequence, error) {
	seed := builder().Insert(sequenceTable).
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing())
	if err := exec(ctx, drv, seed); err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}
	return &sequence{drv: drv}, nil
}

// Next reserves one number. The bump and the read share a transaction.
func (s *sequence) Next(ctx context.Context) (n int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin sequence: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	bump := builder().Update(sequenceTable).
		Add("next_val", 1).
		Where(entsql.EQ("id", 1))
	query, args := bump.Query()
	if err = tx.Exec(ctx, query, args, nil); err != nil {
		return 0, fmt.Errorf("bump sequence: %w", err)
	}

	b := builder()
	read := b.Select("next_val").
		From(b.Table(sequenceTable)).
		Where(entsql.EQ("id", 1))
	query, args = read.Query()
	rows := &entsql.Rows{}
	if err = tx.Query(ctx, query, args, rows); err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}
	if !rows.Next() {
		rows.Close()
		err = errors.New("sequence row missing")
		return 0, err
	}
	if err = rows.Scan(&n); err != nil {
		rows.Close()
		return 0, fmt.Errorf("scan sequence: %w", err)
	}
	rows.Close()

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit sequence: %w", err)
	}
	return n - 1, nil
}
