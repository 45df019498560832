package examgen

import "github.com/alexandernovadev/languagesai/internal/llm"

// questionItemSchema describes one question. Every field is required so the
// schema is accepted by strict structured-output modes; fields that do not
// apply carry -1, an empty string or an empty array.
var questionItemSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"type": map[string]any{
			"type":        "string",
			"enum":        []any{"multiple", "unique", "fillInBlank", "translateText"},
			"description": "multiple = several correct options, unique = one correct option, fillInBlank = complete the gap, translateText = translate the sentence",
		},
		"text": map[string]any{
			"type":        "string",
			"description": "The question prompt shown to the learner",
		},
		"options": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Answer options. Required for multiple and unique, optional for fillInBlank, empty for translateText.",
		},
		"correctIndex": map[string]any{
			"type":        "integer",
			"minimum":     -1,
			"description": "Index into options of the correct option, or -1 when options is empty",
		},
		"correctIndices": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "integer", "minimum": 0},
			"description": "For multiple only: every correct option index. Empty for other types.",
		},
		"correctAnswer": map[string]any{
			"type":        "string",
			"description": "Expected free-text answer when options is empty, otherwise an empty string",
		},
		"grammarTopic": map[string]any{
			"type":        "string",
			"description": "The grammar topic this question practices",
		},
		"explanation": map[string]any{
			"type":        "string",
			"description": "Why the correct answer is correct, in the learner's target language",
		},
	},
	"required": []any{
		"type", "text", "options", "correctIndex", "correctIndices",
		"correctAnswer", "grammarTopic", "explanation",
	},
	"additionalProperties": false,
}

// ExamSchema is the response format for exam generation and correction.
var ExamSchema = &llm.Schema{
	Name:        "language-exam",
	Description: "A language exam with a title and a list of questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Short exam title",
			},
			"questions": map[string]any{
				"type":  "array",
				"items": questionItemSchema,
			},
		},
		"required":             []any{"title", "questions"},
		"additionalProperties": false,
	},
}

// ReviewSchema is the response format for exam validation.
var ReviewSchema = &llm.Schema{
	Name:        "exam-review",
	Description: "A quality review of a generated language exam",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"valid": map[string]any{
				"type":        "boolean",
				"description": "True when the exam can be used as is",
			},
			"score": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     100,
				"description": "Overall quality from 0 to 100",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Summary of the review",
			},
			"issues": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"questionIndex": map[string]any{
							"type":        "integer",
							"minimum":     0,
							"description": "Zero-based index of the affected question",
						},
						"type": map[string]any{
							"type":        "string",
							"enum":        []any{"ambiguous", "incorrect_answer", "off_topic", "wrong_level", "formatting", "other"},
							"description": "Issue category",
						},
						"message": map[string]any{
							"type":        "string",
							"description": "What is wrong and how to fix it",
						},
					},
					"required":             []any{"questionIndex", "type", "message"},
					"additionalProperties": false,
				},
			},
			"suggestions": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"thumbsUp": map[string]any{
				"type":        "boolean",
				"description": "True when the reviewer would recommend the exam",
			},
		},
		"required":             []any{"valid", "score", "feedback", "issues", "suggestions", "thumbsUp"},
		"additionalProperties": false,
	},
}
