// Command segue recommends tracks by nearest-neighbor search over
// standardized audio features. It loads catalogs from CSV exports or a
// local SQLite database, answers seed queries, measures hit-rate@k, and
// serves the engine over HTTP.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath   string
	logLevel  string
	logFormat string

	catalogPath string
	dbPath      string
	subsetSize  int

	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "segue",
	Short: "Audio-feature track recommendations",
	Long: `Segue recommends tracks by nearest-neighbor search over standardized
audio features: pick one or more seed tracks and it ranks the rest of
the catalog by cosine similarity.

Catalogs come from CSV exports (--catalog), a local SQLite database
(--db), or the Spotify Web API (segue fetch).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(logLevel, logFormat)
		return err
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log output format (console or json)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "path to a catalog CSV")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to a SQLite catalog database")
	rootCmd.PersistentFlags().IntVar(&subsetSize, "subset", 0, "sample the CSV catalog down to this many rows (0 = all)")
}

func newLogger(level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse log level %q: %w", level, err)
	}

	var out io.Writer
	switch format {
	case "json":
		out = os.Stderr
	case "console":
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	default:
		return zerolog.Logger{}, fmt.Errorf("unknown log format %q", format)
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
