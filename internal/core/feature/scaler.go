package feature

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

// Scaler standardizes feature vectors to zero mean and unit variance per
// dimension. Fit computes the statistics once; Transform never mutates them,
// so a fitted Scaler is safe for concurrent use.
type Scaler struct {
	mean []float64
	std  []float64
}

// Fit learns per-dimension mean and population standard deviation from a
// row-major matrix.
func Fit(rows [][]float64) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows to fit", domain.ErrInvalidInput)
	}
	dim := len(rows[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-dimensional rows", domain.ErrInvalidInput)
	}
	flat := make([]float64, 0, len(rows)*dim)
	for i, row := range rows {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", domain.ErrInvalidInput, i, len(row), dim)
		}
		flat = append(flat, row...)
	}
	m := mat.NewDense(len(rows), dim, flat)

	s := &Scaler{
		mean: make([]float64, dim),
		std:  make([]float64, dim),
	}
	col := make([]float64, len(rows))
	for j := 0; j < dim; j++ {
		mat.Col(col, j, m)
		s.mean[j] = stat.Mean(col, nil)
		s.std[j] = stat.PopStdDev(col, nil)
	}
	return s, nil
}

// Transform standardizes one vector into a fresh slice. Zero-variance
// dimensions map to 0 exactly; a constant column carries no signal and must
// never turn into Inf or NaN.
func (s *Scaler) Transform(vec []float64) ([]float64, error) {
	if len(vec) != len(s.mean) {
		return nil, fmt.Errorf("%w: vector has %d values, want %d", domain.ErrDimensionMismatch, len(vec), len(s.mean))
	}
	out := make([]float64, len(vec))
	for j, v := range vec {
		if s.std[j] == 0 {
			out[j] = 0
			continue
		}
		out[j] = (v - s.mean[j]) / s.std[j]
	}
	return out, nil
}

// TransformMatrix standardizes every row.
func (s *Scaler) TransformMatrix(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		t, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

func (s *Scaler) Dim() int {
	return len(s.mean)
}

// Mean returns a copy of the fitted per-dimension means.
func (s *Scaler) Mean() []float64 {
	out := make([]float64, len(s.mean))
	copy(out, s.mean)
	return out
}

// Std returns a copy of the fitted per-dimension population standard
// deviations.
func (s *Scaler) Std() []float64 {
	out := make([]float64, len(s.std))
	copy(out, s.std)
	return out
}
