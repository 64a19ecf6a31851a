package knn

import (
	"errors"
	"math"
	"testing"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

func buildTestIndex(t *testing.T, vectors [][]float64, ids []string) *Index {
	t.Helper()
	ix, err := Build(vectors, ids)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ix
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		vectors [][]float64
		ids     []string
		want    error
	}{
		{name: "no vectors", vectors: nil, ids: nil, want: domain.ErrEmptyIndex},
		{name: "id count mismatch", vectors: [][]float64{{1}}, ids: []string{"a", "b"}, want: domain.ErrInvalidInput},
		{name: "zero dims", vectors: [][]float64{{}}, ids: []string{"a"}, want: domain.ErrInvalidInput},
		{name: "ragged", vectors: [][]float64{{1, 2}, {1}}, ids: []string{"a", "b"}, want: domain.ErrInvalidInput},
		{name: "empty id", vectors: [][]float64{{1}}, ids: []string{""}, want: domain.ErrInvalidInput},
		{name: "duplicate id", vectors: [][]float64{{1}, {2}}, ids: []string{"a", "a"}, want: domain.ErrDuplicateTrackID},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Build(tc.vectors, tc.ids); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestQueryOrdersByCosineDistance(t *testing.T) {
	// Against [1,0]: sims are 1, 0, 1/sqrt2, -1.
	ix := buildTestIndex(t, [][]float64{
		{1, 0},
		{0, 1},
		{1, 1},
		{-1, 0},
	}, []string{"a", "b", "c", "d"})

	got, err := ix.Query([]float64{1, 0}, 4, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	wantOrder := []string{"a", "c", "b", "d"}
	if len(got) != len(wantOrder) {
		t.Fatalf("got %d neighbors, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].TrackID != id {
			t.Errorf("rank %d: got %s, want %s", i, got[i].TrackID, id)
		}
	}

	if !almostEqual(got[0].Similarity, 1) || !almostEqual(got[0].Distance, 0) {
		t.Errorf("self hit: sim %v dist %v", got[0].Similarity, got[0].Distance)
	}
	if !almostEqual(got[3].Similarity, -1) || !almostEqual(got[3].Distance, 2) {
		t.Errorf("opposite hit: sim %v dist %v", got[3].Similarity, got[3].Distance)
	}
}

func TestQueryTieBreaksByPosition(t *testing.T) {
	// Positions 1 and 3 hold identical vectors, so their distances tie.
	ix := buildTestIndex(t, [][]float64{
		{0, 1},
		{1, 0},
		{-1, 0},
		{1, 0},
	}, []string{"w", "x", "y", "z"})

	got, err := ix.Query([]float64{1, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got[0].TrackID != "x" || got[1].TrackID != "z" {
		t.Errorf("tie order: got %s, %s; want x, z", got[0].TrackID, got[1].TrackID)
	}
}

func TestQueryExclusion(t *testing.T) {
	ix := buildTestIndex(t, [][]float64{
		{1, 0},
		{1, 0.1},
		{1, 0.2},
	}, []string{"a", "b", "c"})

	exclude := map[string]struct{}{"a": {}, "nope": {}}
	got, err := ix.Query([]float64{1, 0}, 2, exclude)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	// The excluded best hit must not consume a result slot.
	if len(got) != 2 {
		t.Fatalf("got %d neighbors, want 2", len(got))
	}
	for _, n := range got {
		if n.TrackID == "a" {
			t.Errorf("excluded id %q returned", n.TrackID)
		}
	}
	if got[0].TrackID != "b" || got[1].TrackID != "c" {
		t.Errorf("order: got %s, %s; want b, c", got[0].TrackID, got[1].TrackID)
	}
}

func TestQueryCountBound(t *testing.T) {
	ix := buildTestIndex(t, [][]float64{
		{1, 0},
		{0, 1},
		{1, 1},
	}, []string{"a", "b", "c"})

	tests := []struct {
		name    string
		k       int
		exclude map[string]struct{}
		want    int
	}{
		{name: "k below candidates", k: 2, want: 2},
		{name: "k equals candidates", k: 3, want: 3},
		{name: "k above candidates", k: 50, want: 3},
		{name: "exclusion shrinks pool", k: 50, exclude: map[string]struct{}{"b": {}}, want: 2},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ix.Query([]float64{1, 0}, tc.k, tc.exclude)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(got) != tc.want {
				t.Errorf("got %d neighbors, want %d", len(got), tc.want)
			}
		})
	}
}

func TestQueryArgumentErrors(t *testing.T) {
	ix := buildTestIndex(t, [][]float64{{1, 0}}, []string{"a"})

	if _, err := ix.Query([]float64{1}, 1, nil); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("wrong dim: got %v, want ErrDimensionMismatch", err)
	}
	if _, err := ix.Query([]float64{1, 0}, 0, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("k=0: got %v, want ErrInvalidInput", err)
	}
	if _, err := ix.Query([]float64{1, 0}, -3, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("k<0: got %v, want ErrInvalidInput", err)
	}
}

func TestQueryZeroNormVectors(t *testing.T) {
	// Position 1 is all zeros; a zero query hits everything at distance 1.
	ix := buildTestIndex(t, [][]float64{
		{1, 0},
		{0, 0},
	}, []string{"a", "zero"})

	got, err := ix.Query([]float64{0, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for _, n := range got {
		if math.IsNaN(n.Distance) || math.IsInf(n.Distance, 0) {
			t.Fatalf("distance is %v", n.Distance)
		}
		if !almostEqual(n.Distance, 1) || !almostEqual(n.Similarity, 0) {
			t.Errorf("%s: dist %v sim %v, want 1 and 0", n.TrackID, n.Distance, n.Similarity)
		}
	}
	// All distances tie, so order falls back to position.
	if got[0].TrackID != "a" || got[1].TrackID != "zero" {
		t.Errorf("order: got %s, %s; want a, zero", got[0].TrackID, got[1].TrackID)
	}
}

func TestQuerySimilarityBounds(t *testing.T) {
	ix := buildTestIndex(t, [][]float64{
		{0.3, -1.7, 2.2},
		{-0.4, 0.9, -1.1},
		{1.5, 1.5, 0.1},
	}, []string{"a", "b", "c"})

	got, err := ix.Query([]float64{0.3, -1.7, 2.2}, 3, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for _, n := range got {
		if n.Similarity < -1 || n.Similarity > 1 {
			t.Errorf("%s: similarity %v out of [-1, 1]", n.TrackID, n.Similarity)
		}
		if !almostEqual(n.Similarity, 1-n.Distance) {
			t.Errorf("%s: similarity %v does not complement distance %v", n.TrackID, n.Similarity, n.Distance)
		}
	}
}

func TestQueryDeterminism(t *testing.T) {
	ix := buildTestIndex(t, [][]float64{
		{0.1, 0.2, 0.3},
		{0.3, 0.2, 0.1},
		{0.2, 0.2, 0.2},
		{0.9, -0.5, 0.4},
	}, []string{"a", "b", "c", "d"})

	first, err := ix.Query([]float64{0.2, 0.1, 0.3}, 3, map[string]struct{}{"c": {}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for run := 0; run < 5; run++ {
		again, err := ix.Query([]float64{0.2, 0.1, 0.3}, 3, map[string]struct{}{"c": {}})
		if err != nil {
			t.Fatalf("Query run %d: %v", run, err)
		}
		if len(again) != len(first) {
			t.Fatalf("run %d: got %d neighbors, want %d", run, len(again), len(first))
		}
		for i := range first {
			if again[i] != first[i] {
				t.Errorf("run %d rank %d: got %+v, want %+v", run, i, again[i], first[i])
			}
		}
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6
}
