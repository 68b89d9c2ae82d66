// Package provider is the question-provider boundary: given a prompt it
// returns a normalized question list, or fails. Wire-format quirks are
// absorbed here so the engine's Question type stays strict.
package provider

import (
	"context"
	"encoding/json"
	"strings"

	"promptquiz-service/internal/domain"
)

// Provider generates or loads the question list for a prompt.
type Provider interface {
	Generate(ctx context.Context, prompt string) ([]domain.Question, error)
}

// wireQuestion mirrors the generator payload. The options field is kept
// raw because generators emit either a JSON array or a single
// comma-joined string.
type wireQuestion struct {
	Question string          `json:"question"`
	Options  json.RawMessage `json:"options"`
	Answer   string          `json:"answer"`
}

type wireResponse struct {
	Questions []wireQuestion `json:"questions"`
}

// normalizeOptions turns the wire options field into a string slice:
// arrays pass through, delimited strings are split on "," and trimmed,
// anything else becomes an empty slice rather than an error.
func normalizeOptions(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		parts := strings.Split(joined, ",")
		opts := make([]string, 0, len(parts))
		for _, p := range parts {
			opts = append(opts, strings.TrimSpace(p))
		}
		return opts
	}

	return []string{}
}

func toDomain(wire []wireQuestion) []domain.Question {
	questions := make([]domain.Question, 0, len(wire))
	for _, w := range wire {
		questions = append(questions, domain.Question{
			Text:          w.Question,
			Options:       normalizeOptions(w.Options),
			CorrectAnswer: w.Answer,
		})
	}
	return questions
}
