package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/segue/internal/adapters/sqlite"
	"github.com/ewilliams-labs/segue/internal/core/services"
)

var (
	evaluateK       int
	evaluateWorkers int
	evaluateOut     string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Measure hit-rate@k over the catalog",
	Long: `Evaluate runs one leave-one-out trial per artist with at least two
catalog tracks: the artist's earliest track seeds a query, and the trial
hits when the artist's second-earliest track ranks in the top k.

When the catalog comes from --db, the run is also recorded in the
database alongside runs started over HTTP.

Examples:
  segue evaluate --catalog data/spotify.csv --k 10
  segue evaluate --db segue.db --k 25 --workers 4 --out report.csv`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().IntVar(&evaluateK, "k", 10, "neighbors to inspect per trial")
	evaluateCmd.Flags().IntVar(&evaluateWorkers, "workers", 0, "trial parallelism (0 = one per CPU)")
	evaluateCmd.Flags().StringVar(&evaluateOut, "out", "", "write the summary to this CSV file instead of stdout")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	catalog, err := loadCatalog(ctx)
	if err != nil {
		return err
	}
	rec, err := services.BuildRecommender(catalog)
	if err != nil {
		return err
	}

	logger.Info().Int("tracks", catalog.Len()).Int("k", evaluateK).Msg("evaluation started")
	report, err := services.NewEvaluator(rec).Run(ctx, evaluateK, evaluateWorkers)
	if err != nil {
		return err
	}

	if dbPath != "" {
		report.RunID = uuid.NewString()
		store, err := sqlite.NewAdapter(dbPath)
		if err != nil {
			logger.Warn().Err(err).Msg("cannot open db to record the run")
		} else {
			if err := store.SaveEvaluation(ctx, report); err != nil {
				logger.Warn().Err(err).Str("run_id", report.RunID).Msg("failed to record evaluation run")
			} else {
				logger.Info().Str("run_id", report.RunID).Msg("evaluation recorded")
			}
			store.Close()
		}
	}

	sink, closeSink, err := openSink(evaluateOut)
	if err != nil {
		return err
	}
	if err := sink.WriteEvaluation(report); err != nil {
		closeSink()
		return err
	}
	return closeSink()
}
