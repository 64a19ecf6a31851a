package resolver

import (
	"errors"
	"testing"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "strips remastered and punctuation",
			input: "Blinding Lights (Remastered 2020)",
			want:  "blinding lights",
		},
		{
			name:  "strips live suffix",
			input: "Song Title - Live",
			want:  "song title",
		},
		{
			name:  "keeps digits",
			input: "Symphony No. 5",
			want:  "symphony no 5",
		},
		{
			name:  "removes feat tokens",
			input: "Artist feat. Someone",
			want:  "artist someone",
		},
		{
			name:  "removes upload noise",
			input: "Cool Song (Official Video)",
			want:  "cool song",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeQuery(tt.input)
			if got != tt.want {
				t.Fatalf("normalizeQuery: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{name: "kitten sitting", a: "kitten", b: "sitting", want: 3},
		{name: "empty to word", a: "", b: "sound", want: 5},
		{name: "identical", a: "segue", b: "segue", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := levenshteinDistance(tt.a, tt.b); got != tt.want {
				t.Fatalf("distance: got %d, want %d", got, tt.want)
			}
		})
	}
}

func searchCatalog(t *testing.T) *domain.Catalog {
	t.Helper()
	c, err := domain.NewCatalog([]domain.Track{
		{ID: "t1", Name: "Shape of You", Artist: "Ed Sheeran", Popularity: 90},
		{ID: "t2", Name: "Castle on the Hill", Artist: "Ed Sheeran", Popularity: 80},
		{ID: "t3", Name: "Blinding Lights", Artist: "The Weeknd", Popularity: 95},
		{ID: "t4", Name: "Shape of My Heart", Artist: "Sting", Popularity: 70},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

func TestResolve_ExactTitleWins(t *testing.T) {
	r := New(searchCatalog(t))

	got, err := r.Resolve("shape of you", 3)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("no matches")
	}
	if got[0].Track.ID != "t1" {
		t.Errorf("best match: got %s, want t1", got[0].Track.ID)
	}
	if got[0].Score != 1.0 {
		t.Errorf("best score: got %v, want 1.0", got[0].Score)
	}
}

func TestResolve_SubstringBehavesLikeSearch(t *testing.T) {
	r := New(searchCatalog(t))

	got, err := r.Resolve("shape", 10)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("got %d matches, want at least 2", len(got))
	}
	// Both "Shape" titles clear the containment floor; ties settle by
	// catalog position.
	if got[0].Track.ID != "t1" || got[1].Track.ID != "t4" {
		t.Errorf("order: got %s, %s; want t1, t4", got[0].Track.ID, got[1].Track.ID)
	}
	for _, m := range got[:2] {
		if m.Score < 0.9 {
			t.Errorf("%s: containment score %v below floor", m.Track.ID, m.Score)
		}
	}
}

func TestResolve_ArtistQuery(t *testing.T) {
	r := New(searchCatalog(t))

	got, err := r.Resolve("ed sheeran", 10)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("got %d matches, want at least 2", len(got))
	}
	if got[0].Track.ID != "t1" || got[1].Track.ID != "t2" {
		t.Errorf("order: got %s, %s; want t1, t2", got[0].Track.ID, got[1].Track.ID)
	}
}

func TestResolve_TypoStillMatches(t *testing.T) {
	r := New(searchCatalog(t))

	got, err := r.Resolve("blindig lights", 1)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 1 || got[0].Track.ID != "t3" {
		t.Fatalf("typo query: got %+v, want t3", got)
	}
}

func TestResolve_LimitAndThreshold(t *testing.T) {
	r := New(searchCatalog(t))

	got, err := r.Resolve("shape of", 1)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("limit: got %d matches, want 1", len(got))
	}

	got, err = r.Resolve("zzzzqqqq", 10)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("noise query: got %d matches, want 0", len(got))
	}
}

func TestResolve_EmptyQuery(t *testing.T) {
	r := New(searchCatalog(t))

	for _, q := range []string{"", "   ", "(...)"} {
		if _, err := r.Resolve(q, 5); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("query %q: got %v, want ErrInvalidInput", q, err)
		}
	}
}
