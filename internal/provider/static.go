package provider

import (
	"context"

	"promptquiz-service/internal/domain"
)

// Static serves the same fixed question list for every prompt (useful for
// dev runs and tests when no generator is configured).
type Static struct {
	questions []domain.Question
}

func NewStatic(questions []domain.Question) *Static {
	return &Static{questions: questions}
}

func (s *Static) Generate(_ context.Context, _ string) ([]domain.Question, error) {
	return s.questions, nil
}
