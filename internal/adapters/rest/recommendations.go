package rest

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// createRecommendationRequest defines what the client sends us
type createRecommendationRequest struct {
	SeedIDs []string `json:"seed_ids"`
	TopK    int      `json:"top_k"`
}

// CreateRecommendation handles POST /api/v1/recommendations
func (h *Handler) CreateRecommendation(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	// 1. Decode the Request Body
	var req createRecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// 2. Validate Input
	if len(req.SeedIDs) == 0 {
		writeErrorWithCode(w, http.StatusBadRequest, "seed_ids must name at least one track", "INVALID_INPUT")
		return
	}
	k := req.TopK
	if k <= 0 {
		k = h.defaultTopK
	}

	// 3. Call the Engine
	rec, err := h.recommend(req.SeedIDs, k, "recommend")
	if err != nil {
		writeEngineError(w, err)
		return
	}

	// 4. Return the Response
	writeJSON(w, http.StatusOK, toRecommendationJSON(rec))
}
