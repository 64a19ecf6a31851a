package rest

import (
	"time"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

// Wire representations of the domain types. Popularity travels as a pointer
// so catalogs without a popularity column omit the field instead of sending
// the -1 sentinel.

type featuresJSON struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Speechiness      float64 `json:"speechiness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	Loudness         float64 `json:"loudness"`
}

type trackJSON struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Artist     string       `json:"artist"`
	Popularity *int         `json:"popularity,omitempty"`
	Features   featuresJSON `json:"features"`
}

type matchJSON struct {
	Track trackJSON `json:"track"`
	Score float64   `json:"score"`
}

type recommendedTrackJSON struct {
	Rank       int       `json:"rank"`
	Track      trackJSON `json:"track"`
	Similarity float64   `json:"similarity"`
	Distance   float64   `json:"distance"`
}

type recommendationJSON struct {
	Seeds []trackJSON            `json:"seeds"`
	Items []recommendedTrackJSON `json:"items"`
}

type evaluationJSON struct {
	RunID     string  `json:"run_id"`
	Status    string  `json:"status"`
	K         int     `json:"k"`
	Artists   int     `json:"artists"`
	Trials    int     `json:"trials"`
	Hits      int     `json:"hits"`
	HitRate   float64 `json:"hit_rate"`
	StartedAt string  `json:"started_at"`
	ElapsedMs int64   `json:"elapsed_ms"`
	Error     string  `json:"error,omitempty"`
}

func toTrackJSON(t domain.Track) trackJSON {
	out := trackJSON{
		ID:     t.ID,
		Name:   t.Name,
		Artist: t.Artist,
		Features: featuresJSON{
			Danceability:     t.Features.Danceability,
			Energy:           t.Features.Energy,
			Acousticness:     t.Features.Acousticness,
			Instrumentalness: t.Features.Instrumentalness,
			Liveness:         t.Features.Liveness,
			Speechiness:      t.Features.Speechiness,
			Valence:          t.Features.Valence,
			Tempo:            t.Features.Tempo,
			Loudness:         t.Features.Loudness,
		},
	}
	if t.Popularity >= 0 {
		p := t.Popularity
		out.Popularity = &p
	}
	return out
}

func toRecommendationJSON(rec domain.Recommendation) recommendationJSON {
	out := recommendationJSON{
		Seeds: make([]trackJSON, len(rec.Seeds)),
		Items: make([]recommendedTrackJSON, len(rec.Items)),
	}
	for i, s := range rec.Seeds {
		out.Seeds[i] = toTrackJSON(s)
	}
	for i, item := range rec.Items {
		out.Items[i] = recommendedTrackJSON{
			Rank:       item.Rank,
			Track:      toTrackJSON(item.Track),
			Similarity: item.Similarity,
			Distance:   item.Distance,
		}
	}
	return out
}

func toEvaluationJSON(report domain.EvaluationReport) evaluationJSON {
	return evaluationJSON{
		RunID:     report.RunID,
		Status:    report.Status,
		K:         report.K,
		Artists:   report.Artists,
		Trials:    report.Trials,
		Hits:      report.Hits,
		HitRate:   report.HitRate,
		StartedAt: report.StartedAt.UTC().Format(time.RFC3339Nano),
		ElapsedMs: report.Elapsed.Milliseconds(),
		Error:     report.Err,
	}
}
