package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/segue/internal/adapters/csvfile"
	"github.com/ewilliams-labs/segue/internal/adapters/sqlite"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a catalog CSV into a SQLite database",
	Long: `Import loads --catalog, validates every row, and replaces the tracks
stored in --db. Serve mode and later commands can then load the catalog
without re-parsing CSV.

Examples:
  segue import --catalog data/spotify.csv --db segue.db
  segue import --catalog data/spotify.csv --subset 10000 --db segue.db`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if catalogPath == "" || dbPath == "" {
		return errors.New("import needs both --catalog and --db")
	}

	loader := csvfile.NewLoader(catalogPath, csvfile.WithSubset(subsetSize))
	catalog, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	warnSkippedRows(loader)

	store, err := sqlite.NewAdapter(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ImportCatalog(ctx, catalog); err != nil {
		return err
	}

	logger.Info().Int("tracks", catalog.Len()).Str("db", dbPath).Msg("catalog imported")
	return nil
}
