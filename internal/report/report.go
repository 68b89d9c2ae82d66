// Package report derives the final scored report from a finished
// session's outcomes.
package report

import "promptquiz-service/internal/domain"

// Build is a pure function of the outcome list: the same outcomes always
// produce the same report, in question order. The outcomes are copied so
// the report stays valid after the session that produced them restarts.
func Build(outcomes []domain.Outcome) domain.Report {
	copied := make([]domain.Outcome, len(outcomes))
	copy(copied, outcomes)

	correct := 0
	for _, o := range copied {
		if o.IsCorrect {
			correct++
		}
	}
	return domain.Report{
		Outcomes:     copied,
		CorrectCount: correct,
		Total:        len(copied),
	}
}
