package services

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

// Evaluator measures hit-rate@k over a built recommender.
//
// The protocol is leave-one-out per artist: every artist with at least two
// catalog tracks contributes exactly one trial. The artist's earliest catalog
// track is the seed, the second earliest is the target. The index is queried
// with only the seed excluded, so the target stays in the candidate pool, and
// the trial is a hit when the target appears in the top k. Pairs depend only
// on catalog order, so repeated runs score identical trials.
type Evaluator struct {
	rec *Recommender
}

func NewEvaluator(rec *Recommender) *Evaluator {
	return &Evaluator{rec: rec}
}

// trial is one seed/target pair, fixed before any querying starts.
type trial struct {
	seedPos  int
	targetID string
}

// Run executes every trial and reports the aggregate hit rate. workers bounds
// trial parallelism; values below 1 mean one worker per CPU. Cancelling ctx
// abandons the run with ctx's error and no partial report. The returned
// report carries no RunID; the caller owns run identity.
func (e *Evaluator) Run(ctx context.Context, k, workers int) (domain.EvaluationReport, error) {
	if k <= 0 {
		return domain.EvaluationReport{}, fmt.Errorf("service: %w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	start := time.Now()
	catalog := e.rec.catalog

	// 1. Group catalog positions by artist, in first-seen order
	groups := make(map[string][]int)
	order := make([]string, 0)
	for pos := 0; pos < catalog.Len(); pos++ {
		artist := catalog.At(pos).Artist
		if _, seen := groups[artist]; !seen {
			order = append(order, artist)
		}
		groups[artist] = append(groups[artist], pos)
	}

	// 2. Fix the seed/target pair for every qualifying artist. Group slices
	// grow in catalog order, so the first two entries are the artist's two
	// earliest tracks.
	trials := make([]trial, 0, len(order))
	for _, artist := range order {
		positions := groups[artist]
		if len(positions) < 2 {
			continue
		}
		trials = append(trials, trial{
			seedPos:  positions[0],
			targetID: catalog.At(positions[1]).ID,
		})
	}
	if len(trials) == 0 {
		return domain.EvaluationReport{}, fmt.Errorf("service: %w: no artist has two or more tracks", domain.ErrInsufficientData)
	}

	// 3. Score trials in parallel chunks
	hits, err := e.scoreTrials(ctx, trials, k, workers)
	if err != nil {
		return domain.EvaluationReport{}, err
	}

	return domain.EvaluationReport{
		Status:    domain.EvalStatusComplete,
		K:         k,
		Artists:   len(order),
		Trials:    len(trials),
		Hits:      hits,
		HitRate:   float64(hits) / float64(len(trials)),
		StartedAt: start,
		Elapsed:   time.Since(start),
	}, nil
}

func (e *Evaluator) scoreTrials(ctx context.Context, trials []trial, k, workers int) (int, error) {
	if workers > len(trials) {
		workers = len(trials)
	}
	chunk := (len(trials) + workers - 1) / workers

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		hits     int
		firstErr error
	)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(trials))
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(part []trial) {
			defer wg.Done()
			local := 0
			for i, tr := range part {
				if i%64 == 0 {
					select {
					case <-ctx.Done():
						mu.Lock()
						if firstErr == nil {
							firstErr = ctx.Err()
						}
						mu.Unlock()
						return
					default:
					}
				}
				hit, err := e.scoreTrial(tr, k)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				if hit {
					local++
				}
			}
			mu.Lock()
			hits += local
			mu.Unlock()
		}(trials[lo:hi])
	}
	wg.Wait()

	if firstErr != nil {
		return 0, firstErr
	}
	return hits, nil
}

func (e *Evaluator) scoreTrial(tr trial, k int) (bool, error) {
	seed := e.rec.catalog.At(tr.seedPos)
	exclude := map[string]struct{}{seed.ID: {}}
	neighbors, err := e.rec.index.Query(e.rec.normalized[tr.seedPos], k, exclude)
	if err != nil {
		return false, fmt.Errorf("service: score trial for artist %q: %w", seed.Artist, err)
	}
	for _, n := range neighbors {
		if n.TrackID == tr.targetID {
			return true, nil
		}
	}
	return false, nil
}
