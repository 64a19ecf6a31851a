package console_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ewilliams-labs/segue/internal/adapters/console"
	"github.com/ewilliams-labs/segue/internal/core/domain"
)

func TestSink_WriteRecommendation(t *testing.T) {
	rec := domain.Recommendation{
		Items: []domain.RecommendedTrack{
			{
				Rank:       1,
				Track:      domain.Track{ID: "t1", Name: "One", Artist: "A", Popularity: 90},
				Similarity: 0.9375,
				Distance:   0.0625,
			},
			{
				Rank:       2,
				Track:      domain.Track{ID: "t2", Name: "Two", Artist: "B", Popularity: -1},
				Similarity: 0.5,
				Distance:   0.5,
			},
		},
	}

	var buf bytes.Buffer
	if err := console.NewSink(&buf).WriteRecommendation(rec); err != nil {
		t.Fatalf("WriteRecommendation: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"RANK", "POP", "t1", "0.9375", "0.0625", "One", "-"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("got %d lines, want 3:\n%s", len(lines), out)
	}
}

func TestSink_WriteRecommendation_NoPopularityColumn(t *testing.T) {
	rec := domain.Recommendation{
		Items: []domain.RecommendedTrack{
			{Rank: 1, Track: domain.Track{ID: "t1", Name: "One", Artist: "A", Popularity: -1}, Similarity: 1, Distance: 0},
		},
	}

	var buf bytes.Buffer
	if err := console.NewSink(&buf).WriteRecommendation(rec); err != nil {
		t.Fatalf("WriteRecommendation: %v", err)
	}
	if strings.Contains(buf.String(), "POP") {
		t.Errorf("POP column present for popularity-free items:\n%s", buf.String())
	}
}

func TestSink_WriteMatches(t *testing.T) {
	matches := []domain.Match{
		{Track: domain.Track{ID: "t1", Name: "Paranoid Android", Artist: "Radiohead"}, Score: 0.92},
		{Track: domain.Track{ID: "t2", Name: "Paranoid", Artist: "Black Sabbath"}, Score: 0.61},
	}

	var buf bytes.Buffer
	if err := console.NewSink(&buf).WriteMatches(matches); err != nil {
		t.Fatalf("WriteMatches: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"SCORE", "TRACK_ID", "0.92", "Paranoid Android", "Black Sabbath", "t2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("got %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "0.92") {
		t.Errorf("best match not first:\n%s", out)
	}
}

func TestSink_WriteMatches_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := console.NewSink(&buf).WriteMatches(nil); err != nil {
		t.Fatalf("WriteMatches: %v", err)
	}
	if got := buf.String(); got != "no matches\n" {
		t.Errorf("got %q, want %q", got, "no matches\n")
	}
}

func TestSink_WriteEvaluation(t *testing.T) {
	report := domain.EvaluationReport{
		K:       10,
		Artists: 40,
		Trials:  25,
		Hits:    10,
		HitRate: 0.4,
		Elapsed: 1234 * time.Millisecond,
	}

	var buf bytes.Buffer
	if err := console.NewSink(&buf).WriteEvaluation(report); err != nil {
		t.Fatalf("WriteEvaluation: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"hit-rate@10: 0.4000", "trials: 25 (hits 10)", "40 artists", "1.234s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
