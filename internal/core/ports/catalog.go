package ports

import (
	"context"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

// CatalogSource produces a full catalog from wherever the data lives
// (CSV file, database, remote API). Loading is one-shot; the engine never
// reloads behind a built index.
type CatalogSource interface {
	Load(ctx context.Context) (*domain.Catalog, error)
}

// CatalogStore persists catalogs for later loading. Import replaces or
// upserts; LoadCatalog returns tracks in their original import order.
type CatalogStore interface {
	ImportCatalog(ctx context.Context, c *domain.Catalog) error
	LoadCatalog(ctx context.Context) (*domain.Catalog, error)
}
