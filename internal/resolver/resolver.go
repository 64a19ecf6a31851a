// Package resolver turns free-text queries into catalog tracks. It exists so
// the engine core only ever sees resolved track IDs.
package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/core/ports"
)

const (
	// minScore is the floor below which a candidate is noise.
	minScore = 0.4
	// containScore is the guaranteed score for substring containment, so
	// catalog-browsing queries behave like plain substring search.
	containScore = 0.9
	// DefaultLimit caps result counts when the caller passes none.
	DefaultLimit = 10
)

// Resolver fuzzily matches queries against track and artist names.
// Candidate names are normalized once at construction; Resolve is read-only
// afterwards.
type Resolver struct {
	catalog    *domain.Catalog
	candidates []candidate
}

type candidate struct {
	pos    int
	track  string
	artist string
	both   string
}

var _ ports.TrackResolver = (*Resolver)(nil)

func New(catalog *domain.Catalog) *Resolver {
	r := &Resolver{
		catalog:    catalog,
		candidates: make([]candidate, catalog.Len()),
	}
	for pos := 0; pos < catalog.Len(); pos++ {
		t := catalog.At(pos)
		track := normalizeQuery(t.Name)
		artist := normalizeQuery(t.Artist)
		r.candidates[pos] = candidate{
			pos:    pos,
			track:  track,
			artist: artist,
			both:   strings.TrimSpace(artist + " " + track),
		}
	}
	return r
}

// Resolve scores every catalog entry against the query and returns the best
// matches, score descending, position ascending on ties.
func (r *Resolver) Resolve(query string, limit int) ([]domain.Match, error) {
	q := normalizeQuery(query)
	if q == "" {
		return nil, fmt.Errorf("resolver: %w: empty query", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	type scored struct {
		pos   int
		score float64
	}
	hits := make([]scored, 0, limit)
	for _, c := range r.candidates {
		s := score(q, c)
		if s < minScore {
			continue
		}
		hits = append(hits, scored{pos: c.pos, score: s})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].pos < hits[j].pos
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]domain.Match, len(hits))
	for i, h := range hits {
		out[i] = domain.Match{Track: r.catalog.At(h.pos), Score: h.score}
	}
	return out, nil
}

// score takes the best fuzzy similarity across the track name, the artist
// name and the combined form, with a containment floor.
func score(q string, c candidate) float64 {
	best := similarity(q, c.track)
	if s := similarity(q, c.artist); s > best {
		best = s
	}
	if s := similarity(q, c.both); s > best {
		best = s
	}
	if best < containScore && (strings.Contains(c.track, q) || strings.Contains(c.artist, q)) {
		best = containScore
	}
	return best
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshteinDistance(a, b))/float64(longest)
}

func levenshteinDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		copy(prev, curr)
	}
	return prev[len(rb)]
}
