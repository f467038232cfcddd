package store

import (
	"context"
	"encoding/json"
	"time"
)

// QueryOpts configures queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	PathID  string    // journal only: restrict to one learning path
	Purpose string    // LLM events only: restrict to one generation purpose
}

// MutationRecord is one journaled transition of an optimistic mutation.
type MutationRecord struct {
	ID         int
	Sequence   int64
	Timestamp  time.Time
	MutationID string
	Kind       string
	PathID     string
	Entity     string
	Label      string
	Phase      string
	Error      string
}

// JournalRepo persists mutation lifecycle transitions.
type JournalRepo interface {
	// Append records one transition.
	Append(ctx context.Context, rec MutationRecord) error

	// Query returns records newest first.
	Query(ctx context.Context, opts QueryOpts) ([]MutationRecord, error)

	// Prune deletes all but the N most recent records.
	Prune(ctx context.Context, keep int) error
}

// CachedPath is the last server copy of a learning path.
type CachedPath struct {
	PathID    string
	Title     string
	Document  json.RawMessage
	FetchedAt time.Time
}

// PathCacheRepo stores the last fetched copy of each path for offline start.
type PathCacheRepo interface {
	// Save upserts the document for a path.
	Save(ctx context.Context, p CachedPath) error

	// Load returns the cached path, or nil if none exists.
	Load(ctx context.Context, pathID string) (*CachedPath, error)

	// List returns every cached path without documents, most recent first.
	List(ctx context.Context) ([]CachedPath, error)

	// Delete drops the cached copy.
	Delete(ctx context.Context, pathID string) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	LLMRequestEventData
	ID        int
	Sequence  int64
	Timestamp time.Time
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)
}
