package ports

import (
	"context"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

// EvaluationStore keeps evaluation run records. GetEvaluation returns
// domain.ErrNotFound (wrapped) for unknown run IDs.
type EvaluationStore interface {
	SaveEvaluation(ctx context.Context, report domain.EvaluationReport) error
	GetEvaluation(ctx context.Context, runID string) (domain.EvaluationReport, error)
	ListEvaluations(ctx context.Context, limit int) ([]domain.EvaluationReport, error)
}
