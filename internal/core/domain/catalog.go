package domain

import "fmt"

// Catalog is the immutable, ordered track collection the engine works over.
// Position order is the tie-breaking order used everywhere downstream, so the
// constructor fixes it once and nothing mutates it afterwards.
type Catalog struct {
	tracks    []Track
	positions map[string]int
	hasPop    bool
}

// NewCatalog builds a catalog from tracks in their given order.
// Duplicate track IDs are a data error; deduplication is the loader's job.
func NewCatalog(tracks []Track) (*Catalog, error) {
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: catalog needs at least one track", ErrInvalidInput)
	}
	c := &Catalog{
		tracks:    make([]Track, len(tracks)),
		positions: make(map[string]int, len(tracks)),
	}
	copy(c.tracks, tracks)
	for i, t := range c.tracks {
		if t.ID == "" {
			return nil, fmt.Errorf("%w: track at position %d has empty id", ErrInvalidInput, i)
		}
		if _, exists := c.positions[t.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTrackID, t.ID)
		}
		c.positions[t.ID] = i
		if t.Popularity >= 0 {
			c.hasPop = true
		}
	}
	return c, nil
}

func (c *Catalog) Len() int {
	return len(c.tracks)
}

// At returns the track at a catalog position. Positions come from this
// catalog, so out-of-range access is a programming error and panics.
func (c *Catalog) At(pos int) Track {
	return c.tracks[pos]
}

func (c *Catalog) ByID(id string) (Track, bool) {
	pos, ok := c.positions[id]
	if !ok {
		return Track{}, false
	}
	return c.tracks[pos], true
}

func (c *Catalog) Position(id string) (int, bool) {
	pos, ok := c.positions[id]
	return pos, ok
}

// Tracks returns a copy of the ordered track list.
func (c *Catalog) Tracks() []Track {
	out := make([]Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}

// IDs returns track IDs in position order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.tracks))
	for i, t := range c.tracks {
		out[i] = t.ID
	}
	return out
}

// FeatureMatrix returns the raw N x FeatureDim feature matrix in position
// order. Rows are fresh slices; callers may normalize them in place.
func (c *Catalog) FeatureMatrix() [][]float64 {
	out := make([][]float64, len(c.tracks))
	for i, t := range c.tracks {
		out[i] = t.Features.Vector()
	}
	return out
}

// HasPopularity reports whether any source row carried a popularity value.
func (c *Catalog) HasPopularity() bool {
	return c.hasPop
}
