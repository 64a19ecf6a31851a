package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/core/ports"
)

// Sink writes engine results as CSV. The caller owns the writer's lifecycle.
type Sink struct {
	w io.Writer
}

var _ ports.ResultSink = (*Sink)(nil)

func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

// WriteRecommendation emits one row per ranked item. The popularity column
// only appears when the catalog carried popularity data.
func (s *Sink) WriteRecommendation(rec domain.Recommendation) error {
	cw := csv.NewWriter(s.w)

	withPop := false
	for _, item := range rec.Items {
		if item.Track.Popularity >= 0 {
			withPop = true
			break
		}
	}

	header := []string{"rank", "track_name", "artist_name", "track_id"}
	if withPop {
		header = append(header, "popularity")
	}
	header = append(header, "similarity", "distance")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csv adapter: write header: %w", err)
	}

	for _, item := range rec.Items {
		row := []string{
			strconv.Itoa(item.Rank),
			item.Track.Name,
			item.Track.Artist,
			item.Track.ID,
		}
		if withPop {
			row = append(row, strconv.Itoa(item.Track.Popularity))
		}
		row = append(row,
			strconv.FormatFloat(item.Similarity, 'f', 6, 64),
			strconv.FormatFloat(item.Distance, 'f', 6, 64),
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv adapter: write row %d: %w", item.Rank, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv adapter: flush: %w", err)
	}
	return nil
}

// WriteCatalog emits a full catalog in the same column layout the Loader
// reads, so fetched catalogs round-trip. The popularity column only appears
// when the catalog carries popularity data.
func WriteCatalog(w io.Writer, c *domain.Catalog) error {
	cw := csv.NewWriter(w)

	header := []string{"track_id", "track_name", "artist_name"}
	if c.HasPopularity() {
		header = append(header, "popularity")
	}
	header = append(header, domain.FeatureColumns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csv adapter: write header: %w", err)
	}

	for pos := 0; pos < c.Len(); pos++ {
		t := c.At(pos)
		row := []string{t.ID, t.Name, t.Artist}
		if c.HasPopularity() {
			row = append(row, strconv.Itoa(t.Popularity))
		}
		for _, v := range t.Features.Vector() {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv adapter: write track %s: %w", t.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv adapter: flush: %w", err)
	}
	return nil
}

// WriteEvaluation emits a single summary row.
func (s *Sink) WriteEvaluation(report domain.EvaluationReport) error {
	cw := csv.NewWriter(s.w)

	if err := cw.Write([]string{"run_id", "k", "artists", "trials", "hits", "hit_rate", "elapsed_ms"}); err != nil {
		return fmt.Errorf("csv adapter: write header: %w", err)
	}
	row := []string{
		report.RunID,
		strconv.Itoa(report.K),
		strconv.Itoa(report.Artists),
		strconv.Itoa(report.Trials),
		strconv.Itoa(report.Hits),
		strconv.FormatFloat(report.HitRate, 'f', 4, 64),
		strconv.FormatInt(report.Elapsed.Milliseconds(), 10),
	}
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("csv adapter: write row: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv adapter: flush: %w", err)
	}
	return nil
}
