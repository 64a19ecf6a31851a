// Package metrics exposes Prometheus instrumentation for serve mode:
// API request latency and throughput, engine query timing, recommendation
// cache efficiency, and evaluation run accounting.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "segue_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "segue_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	// Engine metrics
	EngineQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "segue_engine_query_duration_seconds",
			Help:    "Duration of neighbor queries through the engine in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "recommend", "similar"
	)

	RecommendationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "segue_recommendation_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
	)

	RecommendationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "segue_recommendation_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
	)

	// Evaluation metrics
	EvaluationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "segue_evaluation_runs_total",
			Help: "Total number of evaluation runs by final status",
		},
		[]string{"status"}, // "complete", "failed", "dropped"
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "segue_evaluation_duration_seconds",
			Help:    "Duration of full evaluation runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	WorkerQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "segue_worker_queue_depth",
			Help: "Current number of queued evaluation jobs",
		},
	)

	// Catalog metrics, set once at startup
	CatalogTracks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "segue_catalog_tracks",
			Help: "Number of tracks in the loaded catalog",
		},
	)

	CatalogDimensions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "segue_catalog_feature_dimensions",
			Help: "Dimensionality of the catalog feature vectors",
		},
	)
)

// RecordAPIRequest records one served API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordEngineQuery records one neighbor query.
func RecordEngineQuery(operation string, duration time.Duration) {
	EngineQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheLookup records a recommendation cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		RecommendationCacheHits.Inc()
	} else {
		RecommendationCacheMisses.Inc()
	}
}

// RecordEvaluation records a finished evaluation run.
func RecordEvaluation(status string, duration time.Duration) {
	EvaluationRunsTotal.WithLabelValues(status).Inc()
	if duration > 0 {
		EvaluationDuration.Observe(duration.Seconds())
	}
}

// SetCatalogInfo publishes the loaded catalog's shape.
func SetCatalogInfo(tracks, dimensions int) {
	CatalogTracks.Set(float64(tracks))
	CatalogDimensions.Set(float64(dimensions))
}
