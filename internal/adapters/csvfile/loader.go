// Package csvfile loads track catalogs from CSV exports and writes engine
// results back out as CSV.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/core/ports"
)

// subsetSeed fixes the sampling permutation so a given subset size always
// selects the same rows from the same file.
const subsetSeed = 42

// Required identity columns beside the feature set.
var identityColumns = []string{"track_id", "track_name", "artist_name"}

// Loader reads a catalog CSV. The header must name the identity columns and
// every feature column; column order is free and a popularity column is
// optional. Malformed rows are dropped and counted, duplicate track IDs keep
// their first occurrence.
type Loader struct {
	path       string
	subset     int
	keepIDs    []string
	dropped    int
	duplicates int
}

type LoaderOption func(*Loader)

// WithSubset samples the catalog down to n rows with a fixed seed. Values
// below 1 or above the row count load everything.
func WithSubset(n int) LoaderOption {
	return func(l *Loader) { l.subset = n }
}

// WithKeepIDs re-injects the given tracks after sampling, so requested seeds
// survive any subset.
func WithKeepIDs(ids ...string) LoaderOption {
	return func(l *Loader) { l.keepIDs = append(l.keepIDs, ids...) }
}

var _ ports.CatalogSource = (*Loader)(nil)

func NewLoader(path string, opts ...LoaderOption) *Loader {
	l := &Loader{path: path}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dropped reports rows rejected for missing or unparsable values during the
// last Load.
func (l *Loader) Dropped() int { return l.dropped }

// Duplicates reports rows skipped for re-using an earlier track ID during the
// last Load.
func (l *Loader) Duplicates() int { return l.duplicates }

func (l *Loader) Load(ctx context.Context) (*domain.Catalog, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("csv adapter: %w", err)
	}
	defer f.Close()

	tracks, err := l.read(ctx, f)
	if err != nil {
		return nil, err
	}
	tracks = l.sample(tracks)

	catalog, err := domain.NewCatalog(tracks)
	if err != nil {
		return nil, fmt.Errorf("csv adapter: %s: %w", l.path, err)
	}
	return catalog, nil
}

func (l *Loader) read(ctx context.Context, r io.Reader) ([]domain.Track, error) {
	l.dropped = 0
	l.duplicates = 0

	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv adapter: read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var tracks []domain.Track
	seen := make(map[string]struct{})
	for row := 1; ; row++ {
		if row%1024 == 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("csv adapter: %w", ctx.Err())
			default:
			}
		}

		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A structurally broken line is a data defect, not a fatal one.
			l.dropped++
			continue
		}

		track, ok := cols.parse(record)
		if !ok {
			l.dropped++
			continue
		}
		if _, dup := seen[track.ID]; dup {
			l.duplicates++
			continue
		}
		seen[track.ID] = struct{}{}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// sample applies the deterministic subset, preserving source order, and then
// re-injects any keep IDs the sample lost.
func (l *Loader) sample(tracks []domain.Track) []domain.Track {
	if l.subset < 1 || l.subset >= len(tracks) {
		return tracks
	}

	rng := rand.New(rand.NewSource(subsetSeed))
	picked := rng.Perm(len(tracks))[:l.subset]
	sort.Ints(picked)

	out := make([]domain.Track, 0, l.subset+len(l.keepIDs))
	inSample := make(map[string]struct{}, l.subset)
	for _, i := range picked {
		out = append(out, tracks[i])
		inSample[tracks[i].ID] = struct{}{}
	}

	for _, keep := range l.keepIDs {
		if _, ok := inSample[keep]; ok {
			continue
		}
		for _, t := range tracks {
			if t.ID == keep {
				out = append(out, t)
				inSample[keep] = struct{}{}
				break
			}
		}
	}
	return out
}

// columnMap resolves header names to record indexes.
type columnMap struct {
	id, name, artist int
	popularity       int // -1 when the column is absent
	features         []int
}

func mapColumns(header []string) (*columnMap, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cols := &columnMap{popularity: -1, features: make([]int, len(domain.FeatureColumns))}
	for _, name := range identityColumns {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("csv adapter: %w: missing column %q", domain.ErrInvalidInput, name)
		}
	}
	cols.id = byName["track_id"]
	cols.name = byName["track_name"]
	cols.artist = byName["artist_name"]

	for i, name := range domain.FeatureColumns {
		idx, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("csv adapter: %w: missing feature column %q", domain.ErrInvalidInput, name)
		}
		cols.features[i] = idx
	}
	if idx, ok := byName["popularity"]; ok {
		cols.popularity = idx
	}
	return cols, nil
}

// parse turns one record into a track. ok is false when any required value is
// missing or not a finite number.
func (c *columnMap) parse(record []string) (domain.Track, bool) {
	width := len(record)
	field := func(i int) string {
		if i < 0 || i >= width {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	id := field(c.id)
	name := field(c.name)
	artist := field(c.artist)
	if id == "" || name == "" || artist == "" {
		return domain.Track{}, false
	}

	vec := make([]float64, len(c.features))
	for i, idx := range c.features {
		v, err := strconv.ParseFloat(field(idx), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.Track{}, false
		}
		vec[i] = v
	}
	features, err := domain.FeaturesFromVector(vec)
	if err != nil {
		return domain.Track{}, false
	}

	popularity := -1
	if c.popularity >= 0 {
		if p, err := strconv.Atoi(field(c.popularity)); err == nil {
			popularity = p
		}
	}

	return domain.Track{
		ID:         id,
		Name:       name,
		Artist:     artist,
		Popularity: popularity,
		Features:   features,
	}, true
}
