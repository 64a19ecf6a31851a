package knn

import (
	"fmt"
	"math"
	"sort"

	"github.com/viterin/vek/vek32"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

// Neighbor is one ranked index hit. Position is the catalog position the
// index was built with; Similarity = 1 - Distance, clamped to [-1, 1].
type Neighbor struct {
	Position   int
	TrackID    string
	Distance   float64
	Similarity float64
}

// Index is an exact cosine-distance index over standardized track vectors.
// Rows live in one flat float32 block with per-row norms precomputed, so a
// query costs one dot product per candidate. Immutable after Build; safe for
// concurrent queries.
type Index struct {
	dim   int
	n     int
	flat  []float32
	norms []float64
	ids   []string
	byID  map[string]int
}

// Build constructs an index from vectors and their track IDs, both in catalog
// position order.
func Build(vectors [][]float64, ids []string) (*Index, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no vectors to index", domain.ErrEmptyIndex)
	}
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("%w: %d ids for %d vectors", domain.ErrInvalidInput, len(ids), len(vectors))
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-dimensional vectors", domain.ErrInvalidInput)
	}

	ix := &Index{
		dim:   dim,
		n:     len(vectors),
		flat:  make([]float32, len(vectors)*dim),
		norms: make([]float64, len(vectors)),
		ids:   make([]string, len(vectors)),
		byID:  make(map[string]int, len(vectors)),
	}
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d values, want %d", domain.ErrInvalidInput, i, len(vec), dim)
		}
		if ids[i] == "" {
			return nil, fmt.Errorf("%w: vector %d has empty id", domain.ErrInvalidInput, i)
		}
		if _, dup := ix.byID[ids[i]]; dup {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateTrackID, ids[i])
		}
		row := ix.flat[i*dim : (i+1)*dim]
		for j, v := range vec {
			row[j] = float32(v)
		}
		ix.norms[i] = math.Sqrt(float64(vek32.Dot(row, row)))
		ix.ids[i] = ids[i]
		ix.byID[ids[i]] = i
	}
	return ix, nil
}

// Query returns the k nearest candidates to vec under cosine distance,
// ascending, with ties broken by ascending position. IDs in exclude are
// skipped before ranking, so they never occupy result slots; unknown IDs in
// exclude are ignored. Fewer than k surviving candidates returns them all.
func (ix *Index) Query(vec []float64, k int, exclude map[string]struct{}) ([]Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if len(vec) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d values, want %d", domain.ErrDimensionMismatch, len(vec), ix.dim)
	}

	q := make([]float32, ix.dim)
	for j, v := range vec {
		q[j] = float32(v)
	}
	qnorm := math.Sqrt(float64(vek32.Dot(q, q)))

	out := make([]Neighbor, 0, ix.n)
	for i := 0; i < ix.n; i++ {
		if _, skip := exclude[ix.ids[i]]; skip {
			continue
		}
		// Zero-norm on either side means cosine is undefined; score it as
		// orthogonal rather than dividing by zero.
		sim := 0.0
		if qnorm > 0 && ix.norms[i] > 0 {
			row := ix.flat[i*ix.dim : (i+1)*ix.dim]
			sim = float64(vek32.Dot(q, row)) / (qnorm * ix.norms[i])
		}
		if sim > 1 {
			sim = 1
		} else if sim < -1 {
			sim = -1
		}
		out = append(out, Neighbor{
			Position:   i,
			TrackID:    ix.ids[i],
			Distance:   1 - sim,
			Similarity: sim,
		})
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].Distance != out[b].Distance {
			return out[a].Distance < out[b].Distance
		}
		return out[a].Position < out[b].Position
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (ix *Index) Len() int {
	return ix.n
}

func (ix *Index) Dim() int {
	return ix.dim
}

func (ix *Index) Has(id string) bool {
	_, ok := ix.byID[id]
	return ok
}
