package domain

// Phase is the coarse state of a quiz session.
type Phase string

const (
	// PhaseLoading means the question list is not yet available.
	PhaseLoading Phase = "loading"
	// PhaseInProgress means a question is active and accepting input.
	PhaseInProgress Phase = "in_progress"
	// PhaseFinished is terminal: every question has an outcome.
	PhaseFinished Phase = "finished"
)

// NoAnswer is the sentinel recorded for a question that timed out.
// It is a literal label, never matched against option text.
const NoAnswer = "No answer"

// Question is a single multiple-choice question, immutable once loaded.
// CorrectAnswer should appear in Options, but nothing enforces that; a
// question whose answer is missing from its options is still presentable,
// it just can never be answered correctly.
type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// Outcome records what happened for one question within a session.
type Outcome struct {
	Question       string `json:"question"`
	CorrectAnswer  string `json:"correctAnswer"`
	SelectedAnswer string `json:"selectedAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
}

// Report is the read-only summary derived from a finished session's
// outcomes. It is detached from the session: a restart never mutates an
// already-delivered report.
type Report struct {
	Outcomes     []Outcome `json:"outcomes"`
	CorrectCount int       `json:"correctCount"`
	Total        int       `json:"total"`
}
