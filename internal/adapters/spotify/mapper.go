package spotify

import (
	"strings"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

// mapTrackToDomain converts a raw Spotify track to a clean domain track.
// features can be nil when the batch lookup had no row for this track; the
// caller fills the gap via fallbackFeatures.
func mapTrackToDomain(st spotifyTrack, features *spotifyAudioFeatures) domain.Track {
	dt := domain.Track{
		ID:         st.ID,
		Name:       st.Name,
		Artist:     joinArtistNames(st),
		Popularity: st.Popularity,
	}

	if features != nil {
		dt.Features = domain.AudioFeatures{
			Danceability:     features.Danceability,
			Energy:           features.Energy,
			Acousticness:     features.Acousticness,
			Instrumentalness: features.Instrumentalness,
			Liveness:         features.Liveness,
			Speechiness:      features.Speechiness,
			Valence:          features.Valence,
			Tempo:            features.Tempo,
			Loudness:         features.Loudness,
		}
	}

	return dt
}

// joinArtistNames flattens the artist list into the display form stored in
// catalogs ("A, B"), matching the artist_name column of CSV sources.
func joinArtistNames(track spotifyTrack) string {
	if len(track.Artists) == 0 {
		return ""
	}
	parts := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		parts = append(parts, artist.Name)
	}
	return strings.Join(parts, ", ")
}
