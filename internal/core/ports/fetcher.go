package ports

import (
	"context"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

// CatalogFetcher builds catalog tracks from a remote provider.
// Fetching is the slow path; implementations own retries and rate limits.
type CatalogFetcher interface {
	FetchArtistTracks(ctx context.Context, artist string) ([]domain.Track, error)
}
