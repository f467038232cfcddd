package api

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// pathSchema describes the path document the tree depends on. Extra fields are
// allowed; the server may add more than the client reads.
var pathSchema = map[string]any{
	"type": "object",
	"anyOf": []any{
		map[string]any{"required": []any{"_id"}},
		map[string]any{"required": []any{"id"}},
	},
	"properties": map[string]any{
		"_id":    map[string]any{"type": "string", "minLength": 1},
		"title":  map[string]any{"type": "string"},
		"status": map[string]any{"enum": []any{"draft", "active", "completed"}},
		"topics": map[string]any{
			"type":  "array",
			"items": map[string]any{"$ref": "#/$defs/topic"},
		},
	},
	"$defs": map[string]any{
		"topic": map[string]any{
			"type":     "object",
			"required": []any{"id", "name"},
			"properties": map[string]any{
				"id":         map[string]any{"type": "string", "minLength": 1},
				"name":       map[string]any{"type": "string"},
				"difficulty": map[string]any{"enum": []any{"easy", "medium", "hard", ""}},
				"submodules": map[string]any{
					"type":  "array",
					"items": map[string]any{"$ref": "#/$defs/submodule"},
				},
			},
		},
		"submodule": map[string]any{
			"type":     "object",
			"required": []any{"id", "title"},
			"properties": map[string]any{
				"id":    map[string]any{"type": "string", "minLength": 1},
				"title": map[string]any{"type": "string"},
				"cells": map[string]any{
					"type":  "array",
					"items": map[string]any{"$ref": "#/$defs/cell"},
				},
				"miniQuiz": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":     "object",
						"required": []any{"question", "options", "answer"},
					},
				},
			},
		},
		"cell": map[string]any{
			"type":     "object",
			"required": []any{"type"},
			"properties": map[string]any{
				"type": map[string]any{"enum": []any{"markdown", "resource"}},
			},
		},
	},
}

var (
	pathSchemaOnce     sync.Once
	pathSchemaCompiled *jsonschema.Schema
	pathSchemaErr      error
)

func compiledPathSchema() (*jsonschema.Schema, error) {
	pathSchemaOnce.Do(func() {
		defBytes, err := json.Marshal(pathSchema)
		if err != nil {
			pathSchemaErr = fmt.Errorf("marshal path schema: %w", err)
			return
		}
		var def any
		if err := json.Unmarshal(defBytes, &def); err != nil {
			pathSchemaErr = fmt.Errorf("parse path schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://learning-path.json"
		if err := c.AddResource(url, def); err != nil {
			pathSchemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		pathSchemaCompiled, pathSchemaErr = c.Compile(url)
	})
	return pathSchemaCompiled, pathSchemaErr
}

// ValidatePath checks a raw path document before it is decoded into the tree.
func ValidatePath(raw json.RawMessage) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	compiled, err := compiledPathSchema()
	if err != nil {
		return fmt.Errorf("compile path schema: %w", err)
	}
	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("path document rejected: %w", err)
	}
	return nil
}
