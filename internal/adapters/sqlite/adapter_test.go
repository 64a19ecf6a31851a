package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

func storeTrack(id, name, artist string, popularity int, seed float64) domain.Track {
	return domain.Track{
		ID:         id,
		Name:       name,
		Artist:     artist,
		Popularity: popularity,
		Features: domain.AudioFeatures{
			Danceability:     seed,
			Energy:           seed + 0.01,
			Acousticness:     seed + 0.02,
			Instrumentalness: seed + 0.03,
			Liveness:         seed + 0.04,
			Speechiness:      seed + 0.05,
			Valence:          seed + 0.06,
			Tempo:            100 + seed,
			Loudness:         -10 + seed,
		},
	}
}

func storeCatalog(t *testing.T, tracks ...domain.Track) *domain.Catalog {
	t.Helper()
	c, err := domain.NewCatalog(tracks)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return c
}

func TestAdapter_ImportLoadRoundTrip(t *testing.T) {
	a, err := NewAdapter(":memory:")
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	defer a.Close()

	in := storeCatalog(t,
		storeTrack("t1", "Song One", "Artist A", 80, 0.25),
		storeTrack("t2", "Song Two", "Artist B", -1, 0.5),
		storeTrack("t3", "Song Three", "Artist A", 12, 0.75),
	)
	if err := a.ImportCatalog(context.Background(), in); err != nil {
		t.Fatalf("import: %v", err)
	}

	out, err := a.LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Len() != in.Len() {
		t.Fatalf("len: got %d, want %d", out.Len(), in.Len())
	}
	for pos := 0; pos < in.Len(); pos++ {
		want := in.At(pos)
		got := out.At(pos)
		if got.ID != want.ID {
			t.Fatalf("position %d: got id %q, want %q", pos, got.ID, want.ID)
		}
		if got.Name != want.Name || got.Artist != want.Artist {
			t.Fatalf("position %d: identity fields differ: got %+v", pos, got)
		}
		if got.Popularity != want.Popularity {
			t.Fatalf("position %d: popularity: got %d, want %d", pos, got.Popularity, want.Popularity)
		}
		if got.Features != want.Features {
			t.Fatalf("position %d: features differ:\n got %+v\nwant %+v", pos, got.Features, want.Features)
		}
	}
}

func TestAdapter_ImportReplacesPrevious(t *testing.T) {
	a, err := NewAdapter(":memory:")
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	defer a.Close()

	first := storeCatalog(t,
		storeTrack("t1", "Song One", "Artist A", 10, 0.1),
		storeTrack("t2", "Song Two", "Artist B", 20, 0.2),
		storeTrack("t3", "Song Three", "Artist C", 30, 0.3),
	)
	if err := a.ImportCatalog(context.Background(), first); err != nil {
		t.Fatalf("first import: %v", err)
	}

	second := storeCatalog(t,
		storeTrack("t9", "Song Nine", "Artist Z", 90, 0.9),
		storeTrack("t2", "Song Two", "Artist B", 21, 0.2),
	)
	if err := a.ImportCatalog(context.Background(), second); err != nil {
		t.Fatalf("second import: %v", err)
	}

	out, err := a.LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("len after replace: got %d, want 2", out.Len())
	}
	if out.At(0).ID != "t9" || out.At(1).ID != "t2" {
		t.Fatalf("order after replace: got %q, %q", out.At(0).ID, out.At(1).ID)
	}
	if _, ok := out.ByID("t1"); ok {
		t.Fatal("t1 should be gone after replacement import")
	}
	if got := out.At(1).Popularity; got != 21 {
		t.Fatalf("t2 popularity not updated: got %d, want 21", got)
	}
}

func TestAdapter_LoadCatalogEmpty(t *testing.T) {
	a, err := NewAdapter(":memory:")
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	defer a.Close()

	if _, err := a.LoadCatalog(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty store, got %v", err)
	}
}

func TestAdapter_EvaluationRuns(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, a *Adapter) string
		wantErr error
		want    domain.EvaluationReport
	}{
		{
			name: "not found",
			setup: func(t *testing.T, a *Adapter) string {
				return "missing"
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "running run flips to complete under same id",
			setup: func(t *testing.T, a *Adapter) string {
				started := time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC)
				running := domain.EvaluationReport{
					RunID:     "run-1",
					Status:    domain.EvalStatusRunning,
					K:         10,
					StartedAt: started,
				}
				if err := a.SaveEvaluation(context.Background(), running); err != nil {
					t.Fatalf("save running: %v", err)
				}
				done := domain.EvaluationReport{
					RunID:     "run-1",
					Status:    domain.EvalStatusComplete,
					K:         10,
					Artists:   42,
					Trials:    40,
					Hits:      25,
					HitRate:   0.625,
					StartedAt: started,
					Elapsed:   1500 * time.Millisecond,
				}
				if err := a.SaveEvaluation(context.Background(), done); err != nil {
					t.Fatalf("save complete: %v", err)
				}
				return "run-1"
			},
			want: domain.EvaluationReport{
				RunID:     "run-1",
				Status:    domain.EvalStatusComplete,
				K:         10,
				Artists:   42,
				Trials:    40,
				Hits:      25,
				HitRate:   0.625,
				StartedAt: time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC),
				Elapsed:   1500 * time.Millisecond,
			},
		},
		{
			name: "failed run keeps its error text",
			setup: func(t *testing.T, a *Adapter) string {
				report := domain.EvaluationReport{
					RunID:     "run-2",
					Status:    domain.EvalStatusFailed,
					K:         5,
					StartedAt: time.Date(2025, 11, 4, 12, 0, 0, 0, time.UTC),
					Err:       "context canceled",
				}
				if err := a.SaveEvaluation(context.Background(), report); err != nil {
					t.Fatalf("save failed run: %v", err)
				}
				return "run-2"
			},
			want: domain.EvaluationReport{
				RunID:     "run-2",
				Status:    domain.EvalStatusFailed,
				K:         5,
				StartedAt: time.Date(2025, 11, 4, 12, 0, 0, 0, time.UTC),
				Err:       "context canceled",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAdapter(":memory:")
			if err != nil {
				t.Fatalf("new adapter: %v", err)
			}
			defer a.Close()

			runID := tt.setup(t, a)
			got, err := a.GetEvaluation(context.Background(), runID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.StartedAt.Equal(tt.want.StartedAt) {
				t.Fatalf("started_at: got %v, want %v", got.StartedAt, tt.want.StartedAt)
			}
			got.StartedAt = tt.want.StartedAt // normalise zone for the struct compare
			if got != tt.want {
				t.Fatalf("report mismatch:\n got %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func TestAdapter_ListEvaluations(t *testing.T) {
	a, err := NewAdapter(":memory:")
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	defer a.Close()

	base := time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		report := domain.EvaluationReport{
			RunID:     id,
			Status:    domain.EvalStatusComplete,
			K:         10,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := a.SaveEvaluation(context.Background(), report); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	got, err := a.ListEvaluations(context.Background(), 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("list length: got %d, want 2", len(got))
	}
	if got[0].RunID != "run-c" || got[1].RunID != "run-b" {
		t.Fatalf("expected newest first, got %q then %q", got[0].RunID, got[1].RunID)
	}
}

func TestAdapter_MigrationIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segue.db")

	a1, err := NewAdapter(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	in := storeCatalog(t, storeTrack("t1", "Song One", "Artist A", 5, 0.4))
	if err := a1.ImportCatalog(context.Background(), in); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := a1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	a2, err := NewAdapter(path)
	if err != nil {
		t.Fatalf("reopen (migration rerun): %v", err)
	}
	defer a2.Close()

	out, err := a2.LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if out.Len() != 1 || out.At(0).ID != "t1" {
		t.Fatalf("catalog lost across reopen: %+v", out)
	}
}
