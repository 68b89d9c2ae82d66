package app_test

import (
	"context"
	"errors"
	"testing"

	"promptquiz-service/internal/app"
	"promptquiz-service/internal/domain"
	"promptquiz-service/internal/engine"
	"promptquiz-service/internal/provider"
)

func TestStartSessionBeginsFirstQuestion(t *testing.T) {
	service := app.NewQuizService(provider.NewStatic(sampleQuestions()), engine.Options{})

	session, err := service.StartSession(context.Background(), "go basics")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	defer session.Close()

	snap := session.Snapshot()
	if snap.Phase != domain.PhaseInProgress || snap.CurrentIndex != 0 {
		t.Fatalf("expected first question in progress, got %+v", snap)
	}
	if snap.Question.Text != "What is 2 + 2?" || snap.Total != 2 {
		t.Fatalf("unexpected question state: %+v", snap)
	}
}

func TestStartSessionRejectsEmptyQuestionList(t *testing.T) {
	service := app.NewQuizService(provider.NewStatic(nil), engine.Options{})

	_, err := service.StartSession(context.Background(), "go basics")
	if !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestStartSessionRejectsBlankPrompt(t *testing.T) {
	service := app.NewQuizService(provider.NewStatic(sampleQuestions()), engine.Options{})

	_, err := service.StartSession(context.Background(), "   ")
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
}

func TestStartSessionSurfacesProviderError(t *testing.T) {
	service := app.NewQuizService(failingProvider{}, engine.Options{})

	_, err := service.StartSession(context.Background(), "go basics")
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	service := app.NewQuizService(provider.NewStatic(sampleQuestions()), engine.Options{})

	first, err := service.StartSession(context.Background(), "go basics")
	if err != nil {
		t.Fatalf("start first: %v", err)
	}
	defer first.Close()

	second, err := service.StartSession(context.Background(), "go basics")
	if err != nil {
		t.Fatalf("start second: %v", err)
	}
	defer second.Close()

	first.SelectOption("4")
	if snap := second.Snapshot(); snap.Score != 0 || snap.SelectedOption != "" {
		t.Fatalf("second session affected by first: %+v", snap)
	}
}

type failingProvider struct{}

func (failingProvider) Generate(context.Context, string) ([]domain.Question, error) {
	return nil, domain.ErrProviderFailure
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: "4"},
		{Text: "Capital of France?", Options: []string{"Paris", "Rome"}, CorrectAnswer: "Paris"},
	}
}
