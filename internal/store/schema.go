package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	journalTable   = "mutation_journal"
	pathCacheTable = "path_cache"
	llmEventTable  = "llm_request_events"
	sequenceTable  = "sequence_counter"
)

var (
	// MutationJournalColumns holds the columns for the "mutation_journal" table.
	MutationJournalColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "mutation_id", Type: field.TypeString},
		{Name: "kind", Type: field.TypeString},
		{Name: "path_id", Type: field.TypeString},
		{Name: "entity", Type: field.TypeString, Default: ""},
		{Name: "label", Type: field.TypeString, Default: ""},
		{Name: "phase", Type: field.TypeString},
		{Name: "error_message", Type: field.TypeString, Default: ""},
	}
	// MutationJournalTable holds the schema information for the "mutation_journal" table.
	MutationJournalTable = &schema.Table{
		Name:       journalTable,
		Columns:    MutationJournalColumns,
		PrimaryKey: []*schema.Column{MutationJournalColumns[0]},
		Indexes: []*schema.Index{
			{Name: "mutationjournal_timestamp", Columns: []*schema.Column{MutationJournalColumns[2]}},
			{Name: "mutationjournal_path_id", Columns: []*schema.Column{MutationJournalColumns[5]}},
			{Name: "mutationjournal_mutation_id", Columns: []*schema.Column{MutationJournalColumns[3]}},
		},
	}

	// PathCacheColumns holds the columns for the "path_cache" table.
	PathCacheColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "path_id", Type: field.TypeString, Unique: true},
		{Name: "title", Type: field.TypeString, Default: ""},
		{Name: "document", Type: field.TypeBytes},
		{Name: "fetched_at", Type: field.TypeTime},
	}
	// PathCacheTable holds the schema information for the "path_cache" table.
	PathCacheTable = &schema.Table{
		Name:       pathCacheTable,
		Columns:    PathCacheColumns,
		PrimaryKey: []*schema.Column{PathCacheColumns[0]},
	}

	// LLMRequestEventsColumns holds the columns for the "llm_request_events" table.
	LLMRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Default: ""},
		{Name: "response_body", Type: field.TypeString, Default: ""},
	}
	// LLMRequestEventsTable holds the schema information for the "llm_request_events" table.
	LLMRequestEventsTable = &schema.Table{
		Name:       llmEventTable,
		Columns:    LLMRequestEventsColumns,
		PrimaryKey: []*schema.Column{LLMRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{LLMRequestEventsColumns[2]}},
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{LLMRequestEventsColumns[5]}},
		},
	}

	// SequenceCounterColumns holds the columns for the "sequence_counter" table.
	SequenceCounterColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	// SequenceCounterTable holds the schema information for the "sequence_counter" table.
	SequenceCounterTable = &schema.Table{
		Name:       sequenceTable,
		Columns:    SequenceCounterColumns,
		PrimaryKey: []*schema.Column{SequenceCounterColumns[0]},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		MutationJournalTable,
		PathCacheTable,
		LLMRequestEventsTable,
		SequenceCounterTable,
	}
)
