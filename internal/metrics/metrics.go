// Package metrics содержит Prometheus-метрики сервиса рекомендаций.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Длительность построения рекомендаций по источнику запроса.
	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spectra_recommend_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"source"},
	)

	// Группы, вернувшиеся пустыми по таймауту хранилища.
	DegradedMediaTypesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectra_recommend_degraded_total",
			Help: "Total number of media type groups degraded to empty by timeout",
		},
		[]string{"media_type"},
	)

	// Вызовы сервиса эмбеддингов по исходу.
	EmbeddingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectra_embedding_requests_total",
			Help: "Total number of embedding service calls",
		},
		[]string{"outcome"},
	)

	ProfileCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spectra_profile_cache_hits_total",
			Help: "Total number of taste profile cache hits",
		},
	)

	ProfileCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spectra_profile_cache_misses_total",
			Help: "Total number of taste profile cache misses",
		},
	)

	// Загруженные элементы каталога по типу.
	ItemsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectra_items_ingested_total",
			Help: "Total number of ingested catalog items",
		},
		[]string{"media_type"},
	)

	// События outbox, отправленные в Kafka, по исходу.
	OutboxPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectra_outbox_published_total",
			Help: "Total number of outbox events published to Kafka",
		},
		[]string{"outcome"},
	)

	// Длительность HTTP-запросов по шаблону маршрута.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spectra_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordRecommend фиксирует длительность запроса и деградировавшие типы.
func RecordRecommend(source string, duration time.Duration, degraded []string) {
	RecommendDuration.WithLabelValues(source).Observe(duration.Seconds())
	for _, mt := range degraded {
		DegradedMediaTypesTotal.WithLabelValues(mt).Inc()
	}
}

// RecordEmbedding фиксирует исход вызова сервиса эмбеддингов.
func RecordEmbedding(err error) {
	if err != nil {
		EmbeddingRequestsTotal.WithLabelValues("error").Inc()
		return
	}
	EmbeddingRequestsTotal.WithLabelValues("ok").Inc()
}

// RecordProfileCache фиксирует попадание или промах кэша профилей.
func RecordProfileCache(hit bool) {
	if hit {
		ProfileCacheHitsTotal.Inc()
		return
	}
	ProfileCacheMissesTotal.Inc()
}

func RecordOutboxPublish(err error) {
	if err != nil {
		OutboxPublishedTotal.WithLabelValues("error").Inc()
		return
	}
	OutboxPublishedTotal.WithLabelValues("ok").Inc()
}

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
