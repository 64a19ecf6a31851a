package rest

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/worker"
)

// createEvaluationRequest defines what the client sends us
type createEvaluationRequest struct {
	K       int `json:"k"`
	Workers int `json:"workers"`
}

type createEvaluationResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

type listEvaluationsResponse struct {
	Runs []evaluationJSON `json:"runs"`
}

// CreateEvaluation handles POST /api/v1/evaluations
func (h *Handler) CreateEvaluation(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.pool == nil {
		writeError(w, http.StatusNotImplemented, "evaluation storage is not configured")
		return
	}
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	// 1. Decode the Request Body
	var req createEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// 2. Fill defaults
	k := req.K
	if k <= 0 {
		k = h.defaultEvalK
	}

	// 3. Record the run before queueing it, so a GET straight after the 202
	// finds it instead of a 404.
	runID := uuid.NewString()
	report := domain.EvaluationReport{
		RunID:     runID,
		Status:    domain.EvalStatusRunning,
		K:         k,
		StartedAt: time.Now().UTC(),
	}
	if err := h.store.SaveEvaluation(r.Context(), report); err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("failed to record evaluation run")
		writeError(w, http.StatusInternalServerError, "failed to record evaluation run")
		return
	}

	// 4. Queue it
	if !h.pool.Submit(worker.Job{RunID: runID, K: k, Workers: req.Workers}) {
		report.Status = domain.EvalStatusFailed
		report.Err = "evaluation queue full"
		_ = h.store.SaveEvaluation(r.Context(), report)
		writeError(w, http.StatusServiceUnavailable, "evaluation queue is full, retry later")
		return
	}

	// 5. Return the Response
	w.Header().Set("Location", "/api/v1/evaluations/"+runID)
	writeJSON(w, http.StatusAccepted, createEvaluationResponse{RunID: runID, Status: domain.EvalStatusRunning})
}

// GetEvaluation handles GET /api/v1/evaluations/{id}
func (h *Handler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotImplemented, "evaluation storage is not configured")
		return
	}

	report, err := h.store.GetEvaluation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEvaluationJSON(report))
}

// ListEvaluations handles GET /api/v1/evaluations
func (h *Handler) ListEvaluations(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotImplemented, "evaluation storage is not configured")
		return
	}

	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	reports, err := h.store.ListEvaluations(r.Context(), limit)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	out := make([]evaluationJSON, len(reports))
	for i, rep := range reports {
		out[i] = toEvaluationJSON(rep)
	}
	writeJSON(w, http.StatusOK, listEvaluationsResponse{Runs: out})
}
