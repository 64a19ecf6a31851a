package rest

import (
	"fmt"
	"net/http"
)

type searchResponse struct {
	Query   string      `json:"query"`
	Matches []matchJSON `json:"matches"`
}

// SearchTracks handles GET /api/v1/tracks/search
func (h *Handler) SearchTracks(w http.ResponseWriter, r *http.Request) {
	// 1. Validate Input
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	// 2. Resolve against the catalog
	matches, err := h.resolver.Resolve(query, limit)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	// 3. Return the Response
	out := make([]matchJSON, len(matches))
	for i, m := range matches {
		out[i] = matchJSON{Track: toTrackJSON(m.Track), Score: m.Score}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Matches: out})
}

// GetTrack handles GET /api/v1/tracks/{id}
func (h *Handler) GetTrack(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	track, ok := h.rec.Catalog().ByID(id)
	if !ok {
		writeErrorWithCode(w, http.StatusNotFound, fmt.Sprintf("track %q not found", id), "NOT_FOUND")
		return
	}

	writeJSON(w, http.StatusOK, toTrackJSON(track))
}

// SimilarTracks handles GET /api/v1/tracks/{id}/similar
func (h *Handler) SimilarTracks(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	k, ok := queryInt(r, "k", h.defaultTopK)
	if !ok {
		writeError(w, http.StatusBadRequest, "k must be a positive integer")
		return
	}

	rec, err := h.recommend([]string{id}, k, "similar")
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecommendationJSON(rec))
}
