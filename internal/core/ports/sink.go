package ports

import "github.com/ewilliams-labs/segue/internal/core/domain"

// ResultSink receives finished engine output. Implementations format and
// deliver (stdout table, CSV file, ...); they never alter ordering.
type ResultSink interface {
	WriteRecommendation(rec domain.Recommendation) error
	WriteEvaluation(report domain.EvaluationReport) error
}
