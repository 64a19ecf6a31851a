// Package worker runs evaluation jobs in the background for serve mode.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/core/ports"
	"github.com/ewilliams-labs/segue/internal/core/services"
	"github.com/ewilliams-labs/segue/internal/metrics"
)

// Job is one queued evaluation request.
type Job struct {
	RunID   string
	K       int
	Workers int // trial parallelism inside the evaluator, not pool workers
}

// Pool owns a fixed set of goroutines draining evaluation jobs. Submitted
// runs land in the EvaluationStore as running, then flip to complete or
// failed under the same run id.
type Pool struct {
	eval    *services.Evaluator
	store   ports.EvaluationStore
	workers int
	jobs    chan Job
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	log     zerolog.Logger
}

// NewPool creates a worker pool with the given worker count and queue size.
func NewPool(eval *services.Evaluator, store ports.EvaluationStore, workers, queueSize int, log zerolog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		eval:    eval,
		store:   store,
		workers: workers,
		jobs:    make(chan Job, queueSize),
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(job)
			}
		}()
	}
}

// Stop cancels in-flight runs, closes the queue and waits for the workers.
// Jobs still queued are started and immediately recorded as failed.
func (p *Pool) Stop() {
	p.cancel()
	close(p.jobs)
	p.wg.Wait()
}

// Submit queues a job without blocking. A false return means the queue was
// full and the job was dropped.
func (p *Pool) Submit(job Job) bool {
	select {
	case p.jobs <- job:
		metrics.WorkerQueueDepth.Inc()
		return true
	default:
		p.log.Warn().Str("run_id", job.RunID).Msg("evaluation queue full, dropping job")
		metrics.RecordEvaluation("dropped", 0)
		return false
	}
}

func (p *Pool) processJob(job Job) {
	metrics.WorkerQueueDepth.Dec()
	started := time.Now()

	// Record the run as running before scoring starts, so GET during the run
	// sees it. Store writes use a fresh context; a canceled pool ctx must not
	// block recording the outcome.
	running := domain.EvaluationReport{
		RunID:     job.RunID,
		Status:    domain.EvalStatusRunning,
		K:         job.K,
		StartedAt: started,
	}
	if err := p.store.SaveEvaluation(context.Background(), running); err != nil {
		p.log.Error().Str("run_id", job.RunID).Err(err).Msg("failed to record running evaluation")
	}

	report, err := p.eval.Run(p.ctx, job.K, job.Workers)
	if err != nil {
		failed := domain.EvaluationReport{
			RunID:     job.RunID,
			Status:    domain.EvalStatusFailed,
			K:         job.K,
			StartedAt: started,
			Elapsed:   time.Since(started),
			Err:       err.Error(),
		}
		if saveErr := p.store.SaveEvaluation(context.Background(), failed); saveErr != nil {
			p.log.Error().Str("run_id", job.RunID).Err(saveErr).Msg("failed to record failed evaluation")
		}
		p.log.Warn().Str("run_id", job.RunID).Err(err).Msg("evaluation run failed")
		metrics.RecordEvaluation(domain.EvalStatusFailed, time.Since(started))
		return
	}

	report.RunID = job.RunID
	if err := p.store.SaveEvaluation(context.Background(), report); err != nil {
		p.log.Error().Str("run_id", job.RunID).Err(err).Msg("failed to record completed evaluation")
		return
	}

	p.log.Info().
		Str("run_id", job.RunID).
		Int("k", report.K).
		Int("trials", report.Trials).
		Float64("hit_rate", report.HitRate).
		Dur("elapsed", report.Elapsed).
		Msg("evaluation complete")
	metrics.RecordEvaluation(domain.EvalStatusComplete, report.Elapsed)
}
