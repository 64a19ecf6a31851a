// Package rest exposes the recommendation engine over HTTP.
package rest

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/core/ports"
	"github.com/ewilliams-labs/segue/internal/core/services"
	"github.com/ewilliams-labs/segue/internal/metrics"
	"github.com/ewilliams-labs/segue/internal/worker"
)

// Options bound request defaults and sizing. Zero values fall back to the
// constants below.
type Options struct {
	DefaultTopK  int // k when a similar/recommendation request names none
	CacheSize    int // recommendation LRU entries; <0 disables the cache
	DefaultEvalK int // k when an evaluation request names none
}

const (
	defaultTopK  = 10
	defaultEvalK = 10
	defaultCache = 256
)

// Handler manages the HTTP interface for the engine.
type Handler struct {
	rec      *services.Recommender
	resolver ports.TrackResolver
	store    ports.EvaluationStore
	pool     *worker.Pool
	cache    *lru.Cache[string, domain.Recommendation]
	log      zerolog.Logger

	defaultTopK  int
	defaultEvalK int

	router *http.ServeMux
	chain  http.Handler
}

// NewHandler initializes the HTTP adapter and sets up routes. store and pool
// may be nil when serve mode runs without persistence; the evaluation
// endpoints then answer 501.
func NewHandler(rec *services.Recommender, res ports.TrackResolver, store ports.EvaluationStore, pool *worker.Pool, log zerolog.Logger, opts Options) *Handler {
	h := &Handler{
		rec:          rec,
		resolver:     res,
		store:        store,
		pool:         pool,
		log:          log,
		defaultTopK:  opts.DefaultTopK,
		defaultEvalK: opts.DefaultEvalK,
		router:       http.NewServeMux(),
	}
	if h.defaultTopK <= 0 {
		h.defaultTopK = defaultTopK
	}
	if h.defaultEvalK <= 0 {
		h.defaultEvalK = defaultEvalK
	}

	cacheSize := opts.CacheSize
	if cacheSize == 0 {
		cacheSize = defaultCache
	}
	if cacheSize > 0 {
		// lru.New only errors on non-positive sizes, which the guard excludes.
		h.cache, _ = lru.New[string, domain.Recommendation](cacheSize)
	}

	h.routes()
	h.chain = requestLogging(log, h.router)

	return h
}

// ServeHTTP satisfies the http.Handler interface, passing requests through
// the middleware chain into the router.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.chain.ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	// Health and observability
	h.router.HandleFunc("GET /health", h.HealthCheck)
	h.router.Handle("GET /metrics", promhttp.Handler())

	// Catalog lookups
	h.router.HandleFunc("GET /api/v1/tracks/search", h.SearchTracks)
	h.router.HandleFunc("GET /api/v1/tracks/{id}", h.GetTrack)
	h.router.HandleFunc("GET /api/v1/tracks/{id}/similar", h.SimilarTracks)

	// Engine
	h.router.HandleFunc("POST /api/v1/recommendations", h.CreateRecommendation)

	// Evaluations
	h.router.HandleFunc("POST /api/v1/evaluations", h.CreateEvaluation)
	h.router.HandleFunc("GET /api/v1/evaluations", h.ListEvaluations)
	h.router.HandleFunc("GET /api/v1/evaluations/{id}", h.GetEvaluation)
}

// HealthCheck reports liveness plus the loaded catalog's shape.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"tracks": h.rec.Catalog().Len(),
		"dim":    h.rec.Dim(),
	})
}

// recommend serves engine queries through the LRU cache. The catalog behind
// a built recommender never changes, so cached entries cannot go stale.
func (h *Handler) recommend(seedIDs []string, k int, operation string) (domain.Recommendation, error) {
	key := cacheKey(seedIDs, k)
	if h.cache != nil {
		if rec, ok := h.cache.Get(key); ok {
			metrics.RecordCacheLookup(true)
			return rec, nil
		}
		metrics.RecordCacheLookup(false)
	}

	start := time.Now()
	rec, err := h.rec.Recommend(seedIDs, k)
	if err != nil {
		return domain.Recommendation{}, err
	}
	metrics.RecordEngineQuery(operation, time.Since(start))

	if h.cache != nil {
		h.cache.Add(key, rec)
	}
	return rec, nil
}

func cacheKey(seedIDs []string, k int) string {
	sorted := make([]string, len(seedIDs))
	copy(sorted, seedIDs)
	sort.Strings(sorted)
	return strings.Join(sorted, ",") + "|k=" + strconv.Itoa(k)
}

// queryInt parses an optional positive integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
