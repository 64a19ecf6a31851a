package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ewilliams-labs/segue/internal/adapters/console"
	"github.com/ewilliams-labs/segue/internal/adapters/csvfile"
	"github.com/ewilliams-labs/segue/internal/adapters/sqlite"
	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/core/ports"
)

// loadCatalog reads the catalog named by --db or --catalog. keepIDs survive
// CSV subsetting so requested seed tracks are always present.
func loadCatalog(ctx context.Context, keepIDs ...string) (*domain.Catalog, error) {
	switch {
	case dbPath != "" && catalogPath != "":
		return nil, errors.New("--catalog and --db are mutually exclusive here; import moves one into the other")
	case dbPath != "":
		store, err := sqlite.NewAdapter(dbPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		catalog, err := store.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info().Int("tracks", catalog.Len()).Str("db", dbPath).Msg("catalog loaded")
		return catalog, nil
	case catalogPath != "":
		loader := csvfile.NewLoader(catalogPath,
			csvfile.WithSubset(subsetSize),
			csvfile.WithKeepIDs(keepIDs...))
		catalog, err := loader.Load(ctx)
		if err != nil {
			return nil, err
		}
		warnSkippedRows(loader)
		logger.Info().Int("tracks", catalog.Len()).Str("path", catalogPath).Msg("catalog loaded")
		return catalog, nil
	default:
		return nil, errors.New("either --catalog or --db is required")
	}
}

func warnSkippedRows(l *csvfile.Loader) {
	if l.Dropped() > 0 || l.Duplicates() > 0 {
		logger.Warn().
			Int("dropped", l.Dropped()).
			Int("duplicates", l.Duplicates()).
			Msg("catalog rows skipped")
	}
}

// openSink returns the stdout table sink, or a CSV sink writing to outPath
// when one is given, plus the close function for the underlying file.
func openSink(outPath string) (ports.ResultSink, func() error, error) {
	if outPath == "" {
		return console.NewSink(os.Stdout), func() error { return nil }, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", outPath, err)
	}
	return csvfile.NewSink(f), f.Close, nil
}
