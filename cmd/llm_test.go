package cmd

import (
	"testing"

	"github.com/abhisek/cognigen/internal/store"
)

func TestUsageByPurpose(t *testing.T) {
	events := []store.LLMRequestEventRecord{
		{LLMRequestEventData: store.LLMRequestEventData{Purpose: "content-gen", Model: "claude-sonnet-4-5", InputTokens: 1000, OutputTokens: 2000, LatencyMs: 300, Success: true}},
		{LLMRequestEventData: store.LLMRequestEventData{Purpose: "content-gen", Model: "claude-sonnet-4-5", InputTokens: 500, OutputTokens: 0, LatencyMs: 100}},
		{LLMRequestEventData: store.LLMRequestEventData{Purpose: "quiz-gen", Model: "offline", InputTokens: 10, OutputTokens: 20, LatencyMs: 1, Success: true}},
	}

	rows, unpriced := usageByPurpose(events)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	content := rows[0]
	if content.Purpose != "content-gen" || content.Calls != 2 || content.Failed != 1 {
		t.Errorf("first row = %+v, want content-gen with 2 calls and 1 failure", content)
	}
	if content.InputTokens != 1500 || content.OutputTokens != 2000 {
		t.Errorf("tokens = %d/%d, want 1500/2000", content.InputTokens, content.OutputTokens)
	}
	if got := content.avgLatency(); got != 200 {
		t.Errorf("avgLatency = %d, want 200", got)
	}
	if rows[1].Cost != 0 {
		t.Errorf("unpriced cost = %f, want 0", rows[1].Cost)
	}
	if len(unpriced) != 1 || unpriced[0] != "offline" {
		t.Errorf("unpriced = %v, want [offline]", unpriced)
	}
}

func TestTruncateIsRuneSafe(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"Concurrency", 5, "Conc…"},
		{"héllo wörld", 6, "héllo…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
