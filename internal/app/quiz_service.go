package app

import (
	"context"
	"fmt"
	"strings"

	"promptquiz-service/internal/domain"
	"promptquiz-service/internal/engine"
)

// QuestionProvider resolves a prompt into a question list (generator
// client, postgres bank, or a cache wrapping either).
type QuestionProvider interface {
	Generate(ctx context.Context, prompt string) ([]domain.Question, error)
}

// QuizService is the use-case layer: it acquires questions for a prompt
// and hands back a running quiz session. Each session is owned by exactly
// one consumer; the service keeps no registry of them.
type QuizService struct {
	provider QuestionProvider
	opts     engine.Options
}

func NewQuizService(provider QuestionProvider, opts engine.Options) *QuizService {
	return &QuizService{provider: provider, opts: opts}
}

// StartSession resolves questions for the prompt and starts a session.
// Provider failures and empty question lists surface as errors: the
// session is never constructed in a broken state.
func (s *QuizService) StartSession(ctx context.Context, prompt string) (*engine.Session, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: empty prompt", domain.ErrProviderFailure)
	}

	questions, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	// The session owns its question list for its whole lifetime; copy so
	// a shared cache entry cannot be mutated out from under it.
	owned := make([]domain.Question, len(questions))
	copy(owned, questions)

	return engine.New(owned, s.opts)
}
