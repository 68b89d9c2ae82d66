package domain

import "errors"

var (
	// ErrNoQuestions is returned when a session would be created with an
	// empty question list; that is a configuration error, not a quiz.
	ErrNoQuestions = errors.New("question list is empty")
	// ErrProviderFailure indicates the question provider failed or
	// returned malformed data.
	ErrProviderFailure = errors.New("question provider failure")
	// ErrBankNotFound indicates no pre-generated question bank exists
	// for the requested topic.
	ErrBankNotFound = errors.New("question bank not found")
)
