package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/segue/internal/adapters/console"
	"github.com/ewilliams-labs/segue/internal/resolver"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Fuzzy-search the catalog by track or artist name",
	Long: `Search scores every catalog entry against the query and prints the best
matches. Use it to find seed track ids for recommend.

Examples:
  segue search --catalog data/spotify.csv "karma police"
  segue search --db segue.db radiohead --limit 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum matches to print")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	catalog, err := loadCatalog(cmd.Context())
	if err != nil {
		return err
	}

	matches, err := resolver.New(catalog).Resolve(query, searchLimit)
	if err != nil {
		return err
	}
	return console.NewSink(os.Stdout).WriteMatches(matches)
}
