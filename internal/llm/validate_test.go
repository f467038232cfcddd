package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

var quizSchema = &Schema{
	Name:        "test-quiz",
	Description: "A multiple-choice question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question":   map[string]any{"type": "string"},
			"options":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 2},
			"answer":     map[string]any{"type": "string"},
			"difficulty": map[string]any{"type": "string", "enum": []any{"easy", "medium", "hard"}},
		},
		"required": []any{"question", "options", "answer"},
	},
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"question":"2+2?","options":["3","4"],"answer":"B","difficulty":"easy"}`, false},
		{"optional omitted", `{"question":"2+2?","options":["3","4"],"answer":"B"}`, false},
		{"missing required", `{"question":"2+2?","options":["3","4"]}`, true},
		{"wrong type", `{"question":"2+2?","options":"3,4","answer":"B"}`, true},
		{"too few options", `{"question":"2+2?","options":["4"],"answer":"A"}`, true},
		{"bad enum", `{"question":"2+2?","options":["3","4"],"answer":"B","difficulty":"trivial"}`, true},
		{"malformed", `{not json}`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(quizSchema, json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected ErrInvalidResponse, got %T", err)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`{"anything":"goes"}`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_NestedCells(t *testing.T) {
	schema := &Schema{
		Name: "test-cells",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"cells": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":       "object",
						"properties": map[string]any{"type": map[string]any{"type": "string"}},
						"required":   []any{"type"},
					},
				},
			},
			"required": []any{"cells"},
		},
	}

	if err := validateResponse(schema, json.RawMessage(`{"cells":[{"type":"markdown","content":"# Hi"}]}`)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if err := validateResponse(schema, json.RawMessage(`{"cells":[{"content":"# Hi"}]}`)); err == nil {
		t.Fatal("expected error for a cell without a type")
	}
}
