// Package console renders engine results as aligned text tables for the CLI.
package console

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/core/ports"
)

// Sink prints results as an aligned table, four decimals on scores.
type Sink struct {
	w io.Writer
}

var _ ports.ResultSink = (*Sink)(nil)

func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

func (s *Sink) WriteRecommendation(rec domain.Recommendation) error {
	tw := tabwriter.NewWriter(s.w, 0, 4, 2, ' ', 0)

	withPop := false
	for _, item := range rec.Items {
		if item.Track.Popularity >= 0 {
			withPop = true
			break
		}
	}

	if withPop {
		fmt.Fprintln(tw, "RANK\tTRACK\tARTIST\tTRACK_ID\tPOP\tSIM\tDIST")
	} else {
		fmt.Fprintln(tw, "RANK\tTRACK\tARTIST\tTRACK_ID\tSIM\tDIST")
	}
	for _, item := range rec.Items {
		if withPop {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.4f\t%.4f\n",
				item.Rank, item.Track.Name, item.Track.Artist, item.Track.ID,
				popularity(item.Track.Popularity), item.Similarity, item.Distance)
		} else {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.4f\t%.4f\n",
				item.Rank, item.Track.Name, item.Track.Artist, item.Track.ID,
				item.Similarity, item.Distance)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("console sink: %w", err)
	}
	return nil
}

// WriteMatches prints fuzzy-search results, best match first.
func (s *Sink) WriteMatches(matches []domain.Match) error {
	if len(matches) == 0 {
		if _, err := fmt.Fprintln(s.w, "no matches"); err != nil {
			return fmt.Errorf("console sink: %w", err)
		}
		return nil
	}

	tw := tabwriter.NewWriter(s.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tTRACK\tARTIST\tTRACK_ID")
	for _, m := range matches {
		fmt.Fprintf(tw, "%.2f\t%s\t%s\t%s\n", m.Score, m.Track.Name, m.Track.Artist, m.Track.ID)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("console sink: %w", err)
	}
	return nil
}

func (s *Sink) WriteEvaluation(report domain.EvaluationReport) error {
	_, err := fmt.Fprintf(s.w,
		"hit-rate@%d: %.4f\ntrials: %d (hits %d) over %d artists\nelapsed: %s\n",
		report.K, report.HitRate, report.Trials, report.Hits, report.Artists,
		report.Elapsed.Round(time.Millisecond))
	if err != nil {
		return fmt.Errorf("console sink: %w", err)
	}
	return nil
}

func popularity(p int) string {
	if p < 0 {
		return "-"
	}
	return strconv.Itoa(p)
}
