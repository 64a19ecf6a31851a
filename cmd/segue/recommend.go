package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/core/services"
	"github.com/ewilliams-labs/segue/internal/resolver"
)

// fallbackPickSeed fixes the no-seed random pick so repeated runs on the
// same catalog recommend from the same track.
const fallbackPickSeed = 7

var (
	recommendSeedIDs []string
	recommendQuery   string
	recommendTop     int
	recommendOut     string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend tracks similar to one or more seeds",
	Long: `Recommend ranks the catalog tracks nearest to the given seeds by cosine
similarity over standardized audio features. Several seeds query with
their centroid.

Seeds come from --seed-id (repeatable), from the best fuzzy match for
--seed-query, or, when neither is given, from a deterministic random
catalog pick.

Examples:
  segue recommend --catalog data/spotify.csv --seed-query "karma police" --top 15
  segue recommend --db segue.db --seed-id 6y0igZArWVi6Iz0rj35c1Y --seed-id 3JOVTQ5h8HGFnDdp4VT3MP
  segue recommend --catalog data/spotify.csv --subset 5000 --out picks.csv`,
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringArrayVar(&recommendSeedIDs, "seed-id", nil, "seed track id (repeatable)")
	recommendCmd.Flags().StringVar(&recommendQuery, "seed-query", "", "fuzzy query resolved to the best-matching track")
	recommendCmd.Flags().IntVar(&recommendTop, "top", 10, "number of recommendations")
	recommendCmd.Flags().StringVar(&recommendOut, "out", "", "write results to this CSV file instead of stdout")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog(cmd.Context(), recommendSeedIDs...)
	if err != nil {
		return err
	}

	rec, err := services.BuildRecommender(catalog)
	if err != nil {
		return err
	}

	seedIDs, err := resolveSeeds(catalog)
	if err != nil {
		return err
	}

	recommendation, err := rec.Recommend(seedIDs, recommendTop)
	if err != nil {
		return err
	}

	seeds := make([]string, len(recommendation.Seeds))
	for i, s := range recommendation.Seeds {
		seeds[i] = fmt.Sprintf("%s by %s", s.Name, s.Artist)
	}
	logger.Info().Strs("seeds", seeds).Int("top", recommendTop).Msg("recommending")

	sink, closeSink, err := openSink(recommendOut)
	if err != nil {
		return err
	}
	if err := sink.WriteRecommendation(recommendation); err != nil {
		closeSink()
		return err
	}
	return closeSink()
}

// resolveSeeds turns flags into concrete track IDs: explicit ids win, then
// the fuzzy query, then a deterministic random pick.
func resolveSeeds(catalog *domain.Catalog) ([]string, error) {
	if len(recommendSeedIDs) > 0 {
		return recommendSeedIDs, nil
	}

	if recommendQuery != "" {
		matches, err := resolver.New(catalog).Resolve(recommendQuery, 1)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no track matches %q", recommendQuery)
		}
		return []string{matches[0].Track.ID}, nil
	}

	pick := catalog.At(rand.New(rand.NewSource(fallbackPickSeed)).Intn(catalog.Len()))
	logger.Info().
		Str("track_id", pick.ID).
		Str("track", pick.Name).
		Str("artist", pick.Artist).
		Msg("no seed given, picked one")
	return []string{pick.ID}, nil
}
