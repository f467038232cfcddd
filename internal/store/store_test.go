package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.Driver() == nil {
		t.Fatal("expected non-nil ent driver")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	for _, table := range []string{journalTable, pathCacheTable, llmEventTable, sequenceTable} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("query sqlite_master for %s: %v", table, err)
		}
		if name != table {
			t.Errorf("table name = %q, want %q", name, table)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.JournalRepo().Append(ctx, MutationRecord{MutationID: "m1", Kind: "add-topic", PathID: "p1", Phase: "committed"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.Close()

	s, err = Open(dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	recs, err := s.JournalRepo().Query(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 1 || recs[0].MutationID != "m1" {
		t.Fatalf("records = %+v, want one m1 entry", recs)
	}
}

func TestJournalAppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	repo := s.JournalRepo()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	entries := []MutationRecord{
		{MutationID: "m1", Kind: "add-topic", PathID: "p1", Entity: "topic:t1", Phase: "applied", Timestamp: base},
		{MutationID: "m1", Kind: "add-topic", PathID: "p1", Entity: "topic:t1", Phase: "committed", Timestamp: base.Add(time.Second)},
		{MutationID: "m2", Kind: "delete-topic", PathID: "p2", Entity: "topic:t9", Phase: "failed", Error: "boom", Timestamp: base.Add(2 * time.Second)},
	}
	for _, e := range entries {
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.Query(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	// Newest first.
	if all[0].MutationID != "m2" || all[0].Error != "boom" {
		t.Errorf("first = %+v, want failed m2", all[0])
	}
	if all[0].Sequence <= all[1].Sequence {
		t.Errorf("sequences not descending: %d, %d", all[0].Sequence, all[1].Sequence)
	}

	p1, err := repo.Query(ctx, QueryOpts{PathID: "p1"})
	if err != nil {
		t.Fatalf("query p1: %v", err)
	}
	if len(p1) != 2 {
		t.Errorf("p1 entries = %d, want 2", len(p1))
	}

	limited, err := repo.Query(ctx, QueryOpts{Limit: 1})
	if err != nil {
		t.Fatalf("query limit: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited = %d, want 1", len(limited))
	}

	after, err := repo.Query(ctx, QueryOpts{After: all[1].Sequence})
	if err != nil {
		t.Fatalf("query after: %v", err)
	}
	if len(after) != 1 || after[0].MutationID != "m2" {
		t.Errorf("after = %+v, want only m2", after)
	}
}

func TestJournalPrune(t *testing.T) {
	s := openTestStore(t)
	repo := s.JournalRepo()
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		if err := repo.Append(ctx, MutationRecord{MutationID: "m", Kind: "edit-cell", PathID: "p1", Phase: "applied"}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	if err := repo.Prune(ctx, 5); err != nil {
		t.Fatalf("prune: %v", err)
	}
	recs, err := repo.Query(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 5 {
		t.Errorf("remaining = %d, want 5", len(recs))
	}

	// Prune with keep larger than the count is a no-op.
	if err := repo.Prune(ctx, 50); err != nil {
		t.Fatalf("prune: %v", err)
	}
	recs, _ = repo.Query(ctx, QueryOpts{})
	if len(recs) != 5 {
		t.Errorf("remaining after no-op prune = %d, want 5", len(recs))
	}
}

func TestPathCacheRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.PathCacheRepo()
	ctx := context.Background()

	got, err := repo.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("load (empty): %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for a path never cached")
	}

	doc := json.RawMessage(`{"_id":"p1","title":"Go"}`)
	if err := repo.Save(ctx, CachedPath{PathID: "p1", Title: "Go", Document: doc}); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Upsert replaces the document.
	doc2 := json.RawMessage(`{"_id":"p1","title":"Go 2"}`)
	if err := repo.Save(ctx, CachedPath{PathID: "p1", Title: "Go 2", Document: doc2}); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err = repo.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatal("expected cached path")
	}
	if got.Title != "Go 2" || string(got.Document) != string(doc2) {
		t.Errorf("cached = %q %s, want latest document", got.Title, got.Document)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list = %d, want 1", len(list))
	}

	if err := repo.Delete(ctx, "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ = repo.Load(ctx, "p1")
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestPathCacheRejectsEmptyID(t *testing.T) {
	s := openTestStore(t)
	if err := s.PathCacheRepo().Save(context.Background(), CachedPath{}); err == nil {
		t.Fatal("expected error for empty path id")
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "mock", Purpose: "path-gen",
		InputTokens: 10, OutputTokens: 20, LatencyMs: 5, Success: true,
		RequestBody: "[user]\nhi", ResponseBody: `{"ok":true}`,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	err = repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "mock", Purpose: "quiz-gen", ErrorMessage: "rate limited",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Purpose != "quiz-gen" || events[0].Success {
		t.Errorf("newest = %+v, want failed quiz-gen", events[0])
	}

	paths, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "path-gen", Limit: 1})
	if err != nil {
		t.Fatalf("query by purpose: %v", err)
	}
	if len(paths) != 1 || paths[0].Purpose != "path-gen" {
		t.Errorf("purpose filter = %+v, want the path-gen event", paths)
	}

	e, err := repo.GetLLMEvent(ctx, events[1].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e == nil || e.ResponseBody != `{"ok":true}` || e.InputTokens != 10 {
		t.Errorf("event = %+v, want stored path-gen event", e)
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing event")
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sc, err := newSequence(ctx, s.Driver())
	if err != nil {
		t.Fatalf("new sequence: %v", err)
	}

	var prev int64
	for i := 0; i < 5; i++ {
		seq, err := sc.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if seq <= prev {
			t.Errorf("seq[%d] = %d, not above %d", i, seq, prev)
		}
		prev = seq
	}

	// A second counter over the same file continues the sequence.
	again, err := newSequence(ctx, s.Driver())
	if err != nil {
		t.Fatalf("reseed sequence: %v", err)
	}
	seq, err := again.Next(ctx)
	if err != nil {
		t.Fatalf("next after reseed: %v", err)
	}
	if seq != prev+1 {
		t.Errorf("seq after reseed = %d, want %d", seq, prev+1)
	}
}
