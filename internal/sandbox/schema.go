package sandbox

import "github.com/abhisek/cognigen/internal/llm"

var difficultyEnum = []any{"easy", "medium", "hard"}

// PathSchema is the outline returned for a path generation request.
var PathSchema = &llm.Schema{
	Name:        "learning-path",
	Description: "An ordered curriculum of topics, each split into submodules",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":       map[string]any{"type": "string", "description": "Path title (3-8 words)"},
			"description": map[string]any{"type": "string", "description": "One paragraph overview"},
			"topics": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":              map[string]any{"type": "string"},
						"difficulty":        map[string]any{"type": "string", "enum": difficultyEnum},
						"estimated_minutes": map[string]any{"type": "integer", "minimum": 1},
						"submodules": map[string]any{
							"type":     "array",
							"minItems": 1,
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"title":   map[string]any{"type": "string"},
									"summary": map[string]any{"type": "string"},
								},
								"required":             []any{"title", "summary"},
								"additionalProperties": false,
							},
						},
					},
					"required":             []any{"name", "difficulty", "estimated_minutes", "submodules"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"title", "description", "topics"},
		"additionalProperties": false,
	},
}

// ContentSchema is the notebook content for every submodule of a topic.
var ContentSchema = &llm.Schema{
	Name:        "topic-content",
	Description: "Markdown notebook cells and study resources per submodule",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"submodules": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id": map[string]any{"type": "string", "description": "Submodule id from the brief"},
						"markdown": map[string]any{
							"type":        "array",
							"description": "Notebook cells in reading order, each one markdown block",
							"items":       map[string]any{"type": "string"},
						},
						"resources": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"url":    map[string]any{"type": "string"},
									"source": map[string]any{"type": "string"},
									"title":  map[string]any{"type": "string"},
								},
								"required":             []any{"url", "source", "title"},
								"additionalProperties": false,
							},
						},
					},
					"required":             []any{"id", "markdown", "resources"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"submodules"},
		"additionalProperties": false,
	},
}

// QuizSchema is a short multiple-choice quiz for one submodule.
var QuizSchema = &llm.Schema{
	Name:        "mini-quiz",
	Description: "Multiple-choice questions checking a submodule",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{"type": "string"},
						"options": map[string]any{
							"type":     "array",
							"minItems": 2,
							"maxItems": 4,
							"items":    map[string]any{"type": "string"},
						},
						"answer":     map[string]any{"type": "string", "enum": []any{"A", "B", "C", "D"}},
						"difficulty": map[string]any{"type": "string", "enum": difficultyEnum},
					},
					"required":             []any{"question", "options", "answer", "difficulty"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
