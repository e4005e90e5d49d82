package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m io_prometheus_client.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestRecordRecommend(t *testing.T) {
	before := counterValue(t, DegradedMediaTypesTotal.WithLabelValues("music"))

	RecordRecommend("text", 30*time.Millisecond, []string{"music"})

	if after := counterValue(t, DegradedMediaTypesTotal.WithLabelValues("music")); after != before+1 {
		t.Errorf("degraded counter = %v, want %v", after, before+1)
	}
}

func TestRecordEmbedding(t *testing.T) {
	okBefore := counterValue(t, EmbeddingRequestsTotal.WithLabelValues("ok"))
	errBefore := counterValue(t, EmbeddingRequestsTotal.WithLabelValues("error"))

	RecordEmbedding(nil)
	RecordEmbedding(errors.New("unavailable"))

	if got := counterValue(t, EmbeddingRequestsTotal.WithLabelValues("ok")); got != okBefore+1 {
		t.Errorf("ok = %v", got)
	}
	if got := counterValue(t, EmbeddingRequestsTotal.WithLabelValues("error")); got != errBefore+1 {
		t.Errorf("error = %v", got)
	}
}

func TestRecordProfileCache(t *testing.T) {
	hits := counterValue(t, ProfileCacheHitsTotal)
	misses := counterValue(t, ProfileCacheMissesTotal)

	RecordProfileCache(true)
	RecordProfileCache(false)
	RecordProfileCache(false)

	if got := counterValue(t, ProfileCacheHitsTotal); got != hits+1 {
		t.Errorf("hits = %v", got)
	}
	if got := counterValue(t, ProfileCacheMissesTotal); got != misses+2 {
		t.Errorf("misses = %v", got)
	}
}
