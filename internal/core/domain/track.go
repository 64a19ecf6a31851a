package domain

import "fmt"

// FeatureColumns lists the audio dimensions every track carries, in the order
// they appear in feature vectors. Loaders validate source data against this
// list; reordering it would silently change the meaning of every vector.
var FeatureColumns = []string{
	"danceability",
	"energy",
	"acousticness",
	"instrumentalness",
	"liveness",
	"speechiness",
	"valence",
	"tempo",
	"loudness",
}

// FeatureDim is the dimensionality of a track feature vector.
const FeatureDim = 9

// AudioFeatures holds the numeric audio profile of a track.
type AudioFeatures struct {
	Danceability     float64
	Energy           float64
	Acousticness     float64
	Instrumentalness float64
	Liveness         float64
	Speechiness      float64
	Valence          float64
	Tempo            float64
	Loudness         float64
}

// Vector returns the features in FeatureColumns order.
func (f AudioFeatures) Vector() []float64 {
	return []float64{
		f.Danceability,
		f.Energy,
		f.Acousticness,
		f.Instrumentalness,
		f.Liveness,
		f.Speechiness,
		f.Valence,
		f.Tempo,
		f.Loudness,
	}
}

// FeaturesFromVector is the inverse of Vector.
func FeaturesFromVector(v []float64) (AudioFeatures, error) {
	if len(v) != FeatureDim {
		return AudioFeatures{}, fmt.Errorf("%w: got %d values, want %d", ErrDimensionMismatch, len(v), FeatureDim)
	}
	return AudioFeatures{
		Danceability:     v[0],
		Energy:           v[1],
		Acousticness:     v[2],
		Instrumentalness: v[3],
		Liveness:         v[4],
		Speechiness:      v[5],
		Valence:          v[6],
		Tempo:            v[7],
		Loudness:         v[8],
	}, nil
}

// Track represents one catalog entry.
// Popularity is -1 when the source data carried no popularity column.
type Track struct {
	ID         string
	Name       string
	Artist     string
	Popularity int
	Features   AudioFeatures
}
