package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/health", "200"))
	RecordAPIRequest("GET", "/health", 200, 3*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/health", "200"))
	if after != before+1 {
		t.Fatalf("requests counter: got %v, want %v", after, before+1)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hitsBefore := testutil.ToFloat64(RecommendationCacheHits)
	missesBefore := testutil.ToFloat64(RecommendationCacheMisses)

	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)

	if got := testutil.ToFloat64(RecommendationCacheHits); got != hitsBefore+1 {
		t.Fatalf("cache hits: got %v, want %v", got, hitsBefore+1)
	}
	if got := testutil.ToFloat64(RecommendationCacheMisses); got != missesBefore+2 {
		t.Fatalf("cache misses: got %v, want %v", got, missesBefore+2)
	}
}

func TestRecordEvaluation(t *testing.T) {
	before := testutil.ToFloat64(EvaluationRunsTotal.WithLabelValues("complete"))
	RecordEvaluation("complete", 2*time.Second)
	if got := testutil.ToFloat64(EvaluationRunsTotal.WithLabelValues("complete")); got != before+1 {
		t.Fatalf("evaluation runs: got %v, want %v", got, before+1)
	}
}

func TestSetCatalogInfo(t *testing.T) {
	SetCatalogInfo(1200, 9)
	if got := testutil.ToFloat64(CatalogTracks); got != 1200 {
		t.Fatalf("catalog tracks gauge: got %v, want 1200", got)
	}
	if got := testutil.ToFloat64(CatalogDimensions); got != 9 {
		t.Fatalf("catalog dimensions gauge: got %v, want 9", got)
	}
}
