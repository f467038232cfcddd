package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type journalRepo struct {
	drv *entsql.Driver
	seq *sequence
}

var journalColumns = []string{
	"id", "sequence", "timestamp", "mutation_id", "kind", "path_id",
	"entity", "label", "phase", "error_message",
}

func (r *journalRepo) Append(ctx context.Context, rec MutationRecord) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	ins := builder().Insert(journalTable).
		Columns(journalColumns[1:]...).
		Values(seqNum, ts.UTC(), rec.MutationID, rec.Kind, rec.PathID,
			rec.Entity, rec.Label, rec.Phase, rec.Error)
	if err := exec(ctx, r.drv, ins); err != nil {
		return fmt.Errorf("save journal entry: %w", err)
	}
	return nil
}

func (r *journalRepo) Query(ctx context.Context, opts QueryOpts) ([]MutationRecord, error) {
	b := builder()
	sel := b.Select(journalColumns...).From(b.Table(journalTable))
	if p := rangePredicate(opts); p != nil {
		sel.Where(p)
	}
	if opts.PathID != "" {
		sel.Where(entsql.EQ("path_id", opts.PathID))
	}
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []MutationRecord
	for rows.Next() {
		var rec MutationRecord
		if err := rows.Scan(&rec.ID, &rec.Sequence, &rec.Timestamp, &rec.MutationID,
			&rec.Kind, &rec.PathID, &rec.Entity, &rec.Label, &rec.Phase, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *journalRepo) Prune(ctx context.Context, keep int) error {
	b := builder()
	sel := b.Select("sequence").From(b.Table(journalTable)).
		OrderBy(entsql.Desc("sequence")).
		Offset(keep).
		Limit(1)

	query, args := sel.Query()
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return fmt.Errorf("query journal for prune: %w", err)
	}
	var threshold int64
	found := rows.Next()
	if found {
		if err := rows.Scan(&threshold); err != nil {
			rows.Close()
			return fmt.Errorf("scan prune threshold: %w", err)
		}
	}
	rows.Close()
	if !found {
		return nil // fewer than keep entries exist
	}

	del := b.Delete(journalTable).Where(entsql.LTE("sequence", threshold))
	if err := exec(ctx, r.drv, del); err != nil {
		return fmt.Errorf("prune journal: %w", err)
	}
	return nil
}

// rangePredicate builds the sequence and timestamp filters of opts.
func rangePredicate(opts QueryOpts) *entsql.Predicate {
	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", opts.To.UTC()))
	}
	if len(preds) == 0 {
		return nil
	}
	return entsql.And(preds...)
}
