package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/segue/internal/adapters/csvfile"
	"github.com/ewilliams-labs/segue/internal/adapters/rest"
	"github.com/ewilliams-labs/segue/internal/adapters/sqlite"
	"github.com/ewilliams-labs/segue/internal/config"
	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/core/ports"
	"github.com/ewilliams-labs/segue/internal/core/services"
	"github.com/ewilliams-labs/segue/internal/metrics"
	"github.com/ewilliams-labs/segue/internal/resolver"
	"github.com/ewilliams-labs/segue/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the engine over HTTP",
	Long: `Serve loads the configured catalog, builds the engine, and exposes it as
a JSON API with Prometheus metrics on /metrics. Background evaluation
runs need a SQLite database; without one the evaluation endpoints answer
501.

Configuration layers defaults, the --config file, and SEGUE_ environment
variables; --catalog, --db, and --subset override the catalog section.

Examples:
  segue serve --db segue.db
  segue serve --catalog data/spotify.csv --subset 20000
  SEGUE_SERVER__PORT=9000 segue serve --config segue.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Configuration. The logger follows the config unless flags set it.
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	level, format := cfg.Logging.Level, cfg.Logging.Format
	if rootCmd.PersistentFlags().Changed("log-level") {
		level = logLevel
	}
	if rootCmd.PersistentFlags().Changed("log-format") {
		format = logFormat
	}
	if logger, err = newLogger(level, format); err != nil {
		return err
	}

	if catalogPath != "" {
		cfg.Catalog.CSVPath = catalogPath
	}
	if dbPath != "" {
		cfg.Catalog.DBPath = dbPath
	}
	if subsetSize > 0 {
		cfg.Catalog.Subset = subsetSize
	}

	// 2. Catalog source
	var (
		catalog *domain.Catalog
		store   *sqlite.Adapter
	)
	switch {
	case cfg.Catalog.DBPath != "":
		store, err = sqlite.NewAdapter(cfg.Catalog.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if catalog, err = store.LoadCatalog(cmd.Context()); err != nil {
			return err
		}
	case cfg.Catalog.CSVPath != "":
		loader := csvfile.NewLoader(cfg.Catalog.CSVPath, csvfile.WithSubset(cfg.Catalog.Subset))
		if catalog, err = loader.Load(cmd.Context()); err != nil {
			return err
		}
		warnSkippedRows(loader)
	default:
		return errors.New("no catalog source configured; set --catalog, --db, or catalog.csv_path in the config")
	}

	// 3. Engine core
	rec, err := services.BuildRecommender(catalog)
	if err != nil {
		return err
	}
	res := resolver.New(catalog)
	metrics.SetCatalogInfo(catalog.Len(), rec.Dim())

	// 4. Background evaluations need persistence. A typed nil adapter must
	// not reach the handler's interface field, so the assignment is guarded.
	var evalStore ports.EvaluationStore
	var pool *worker.Pool
	if store != nil {
		evalStore = store
		pool = worker.NewPool(services.NewEvaluator(rec), store,
			cfg.Evaluation.Workers, cfg.Evaluation.QueueSize, logger)
		pool.Start()
		defer pool.Stop()
	}

	handler := rest.NewHandler(rec, res, evalStore, pool, logger, rest.Options{
		DefaultTopK:  cfg.Engine.DefaultTopK,
		CacheSize:    cfg.Engine.CacheSize,
		DefaultEvalK: cfg.Evaluation.DefaultK,
	})

	// 5. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info().
		Str("addr", srv.Addr).
		Int("tracks", catalog.Len()).
		Bool("evaluations", store != nil).
		Msg("segue api listening")

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
