package itemgen

import "github.com/abhisek/adaptiq/internal/llm"

// BatchSchema defines the JSON schema for a batch of generated items.
var BatchSchema = &llm.Schema{
	Name:        "mcq-batch",
	Description: "A batch of multiple-choice assessment items with one correct answer each",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "The self-contained question stem",
						},
						"choices": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"minItems":    ChoiceCount,
							"maxItems":    ChoiceCount,
							"description": "Exactly 4 answer options",
						},
						"answer_index": map[string]any{
							"type":        "integer",
							"minimum":     0,
							"maximum":     ChoiceCount - 1,
							"description": "Zero-based index of the correct option",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "Short rationale for the correct option",
						},
					},
					"required":             []any{"question", "choices", "answer_index", "explanation"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"items"},
		"additionalProperties": false,
	},
}
