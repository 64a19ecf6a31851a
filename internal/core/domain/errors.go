package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the engine core. Adapters wrap them with layer
// context; callers match with errors.Is.
var (
	ErrInvalidInput      = errors.New("domain: invalid input")
	ErrDimensionMismatch = errors.New("domain: dimension mismatch")
	ErrEmptyIndex        = errors.New("domain: empty index")
	ErrInsufficientData  = errors.New("domain: insufficient data")
	ErrSeedNotFound      = errors.New("domain: seed not found")
	ErrDuplicateTrackID  = errors.New("domain: duplicate track id")
	ErrNotFound          = errors.New("domain: not found")
)

// SeedNotFoundError reports which requested seed is missing from the catalog.
type SeedNotFoundError struct {
	ID string
}

func (e SeedNotFoundError) Error() string {
	if e.ID == "" {
		return ErrSeedNotFound.Error()
	}
	return fmt.Sprintf("seed track %q not in catalog", e.ID)
}

func (e SeedNotFoundError) Is(target error) bool {
	return target == ErrSeedNotFound
}
