package ports

import "github.com/ewilliams-labs/segue/internal/core/domain"

// TrackResolver turns free text into catalog tracks, best match first.
// An empty result is not an error; callers decide whether that is fatal.
type TrackResolver interface {
	Resolve(query string, limit int) ([]domain.Match, error)
}
