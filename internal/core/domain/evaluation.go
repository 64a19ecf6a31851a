package domain

import "time"

// States of a stored evaluation run.
const (
	EvalStatusRunning  = "running"
	EvalStatusComplete = "complete"
	EvalStatusFailed   = "failed"
)

// EvaluationReport summarises one hit-rate@k run over a catalog.
//
// Each qualifying artist (two or more catalog tracks) contributes exactly one
// leave-one-out trial, so Trials counts qualifying artists and HitRate is
// Hits/Trials.
type EvaluationReport struct {
	RunID     string
	Status    string
	K         int
	Artists   int // distinct artists in the catalog
	Trials    int
	Hits      int
	HitRate   float64
	StartedAt time.Time
	Elapsed   time.Duration
	Err       string // populated when Status is EvalStatusFailed
}
