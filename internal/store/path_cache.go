package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type pathCacheRepo struct {
	drv *entsql.Driver
}

func (r *pathCacheRepo) Save(ctx context.Context, p CachedPath) error {
	if p.PathID == "" {
		return fmt.Errorf("save cached path: empty path id")
	}
	at := p.FetchedAt
	if at.IsZero() {
		at = time.Now()
	}

	ins := builder().Insert(pathCacheTable).
		Columns("path_id", "title", "document", "fetched_at").
		Values(p.PathID, p.Title, []byte(p.Document), at.UTC()).
		OnConflict(
			entsql.ConflictColumns("path_id"),
			entsql.ResolveWithNewValues(),
		)
	if err := exec(ctx, r.drv, ins); err != nil {
		return fmt.Errorf("save cached path: %w", err)
	}
	return nil
}

func (r *pathCacheRepo) Load(ctx context.Context, pathID string) (*CachedPath, error) {
	b := builder()
	sel := b.Select("path_id", "title", "document", "fetched_at").
		From(b.Table(pathCacheTable)).
		Where(entsql.EQ("path_id", pathID)).
		Limit(1)

	query, args := sel.Query()
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query cached path: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var (
		p   CachedPath
		doc []byte
	)
	if err := rows.Scan(&p.PathID, &p.Title, &doc, &p.FetchedAt); err != nil {
		return nil, fmt.Errorf("scan cached path: %w", err)
	}
	p.Document = doc
	return &p, nil
}

func (r *pathCacheRepo) List(ctx context.Context) ([]CachedPath, error) {
	b := builder()
	sel := b.Select("path_id", "title", "fetched_at").
		From(b.Table(pathCacheTable)).
		OrderBy(entsql.Desc("fetched_at"))

	query, args := sel.Query()
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("list cached paths: %w", err)
	}
	defer rows.Close()

	var out []CachedPath
	for rows.Next() {
		var p CachedPath
		if err := rows.Scan(&p.PathID, &p.Title, &p.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan cached path: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pathCacheRepo) Delete(ctx context.Context, pathID string) error {
	del := builder().Delete(pathCacheTable).Where(entsql.EQ("path_id", pathID))
	if err := exec(ctx, r.drv, del); err != nil {
		return fmt.Errorf("delete cached path: %w", err)
	}
	return nil
}
