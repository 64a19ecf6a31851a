package services

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/core/feature"
	"github.com/ewilliams-labs/segue/internal/core/knn"
)

// Recommender answers seed queries over one immutable catalog. Building fits
// the scaler and the index once; afterwards the recommender is read-only and
// safe for concurrent use.
type Recommender struct {
	catalog    *domain.Catalog
	scaler     *feature.Scaler
	index      *knn.Index
	normalized [][]float64 // standardized catalog vectors, position order
}

// BuildRecommender standardizes the catalog's feature matrix and indexes it.
func BuildRecommender(catalog *domain.Catalog) (*Recommender, error) {
	if catalog == nil || catalog.Len() == 0 {
		return nil, fmt.Errorf("service: %w: empty catalog", domain.ErrInvalidInput)
	}

	// 1. Fit the scaler on the raw feature matrix
	raw := catalog.FeatureMatrix()
	scaler, err := feature.Fit(raw)
	if err != nil {
		return nil, fmt.Errorf("service: fit scaler: %w", err)
	}

	// 2. Standardize every row
	normalized, err := scaler.TransformMatrix(raw)
	if err != nil {
		return nil, fmt.Errorf("service: standardize catalog: %w", err)
	}

	// 3. Index the standardized vectors
	index, err := knn.Build(normalized, catalog.IDs())
	if err != nil {
		return nil, fmt.Errorf("service: build index: %w", err)
	}

	return &Recommender{
		catalog:    catalog,
		scaler:     scaler,
		index:      index,
		normalized: normalized,
	}, nil
}

// Recommend returns the topK catalog tracks nearest to the given seeds.
// One seed queries with its own standardized vector; several seeds query with
// their centroid. Seeds never appear in the result. A topK beyond the
// available candidate pool returns every candidate rather than failing.
func (r *Recommender) Recommend(seedIDs []string, topK int) (domain.Recommendation, error) {
	if len(seedIDs) == 0 {
		return domain.Recommendation{}, fmt.Errorf("service: %w: no seed ids", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		return domain.Recommendation{}, fmt.Errorf("service: %w: topK must be positive, got %d", domain.ErrInvalidInput, topK)
	}

	// 1. Resolve seeds to catalog positions, collapsing duplicates
	seedSet := make(map[string]struct{}, len(seedIDs))
	positions := make([]int, 0, len(seedIDs))
	seeds := make([]domain.Track, 0, len(seedIDs))
	for _, id := range seedIDs {
		if _, dup := seedSet[id]; dup {
			continue
		}
		pos, ok := r.catalog.Position(id)
		if !ok {
			return domain.Recommendation{}, fmt.Errorf("service: %w", domain.SeedNotFoundError{ID: id})
		}
		seedSet[id] = struct{}{}
		positions = append(positions, pos)
		seeds = append(seeds, r.catalog.At(pos))
	}

	// 2. Build the query vector
	query := r.seedCentroid(positions)

	// 3. Rank candidates with every seed excluded
	neighbors, err := r.index.Query(query, topK, seedSet)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("service: query index: %w", err)
	}

	// 4. Assemble the ranked output
	items := make([]domain.RecommendedTrack, len(neighbors))
	for i, n := range neighbors {
		items[i] = domain.RecommendedTrack{
			Rank:       i + 1,
			Track:      r.catalog.At(n.Position),
			Similarity: n.Similarity,
			Distance:   n.Distance,
		}
	}
	return domain.Recommendation{Seeds: seeds, Items: items}, nil
}

// seedCentroid averages the standardized vectors at the given positions.
// For a single position this is exactly that track's vector.
func (r *Recommender) seedCentroid(positions []int) []float64 {
	centroid := make([]float64, r.scaler.Dim())
	for _, pos := range positions {
		floats.Add(centroid, r.normalized[pos])
	}
	floats.Scale(1/float64(len(positions)), centroid)
	return centroid
}

func (r *Recommender) Catalog() *domain.Catalog {
	return r.catalog
}

func (r *Recommender) Dim() int {
	return r.scaler.Dim()
}
