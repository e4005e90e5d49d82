package cfg

import (
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
)

func TestLoadTasteCfgDefaults(t *testing.T) {
	got, err := loadTasteCfg()
	if err != nil {
		t.Fatalf("loadTasteCfg: %v", err)
	}

	want := TasteCfg{
		TendencyThreshold:   0.15,
		RatingMidpoint:      3.0,
		FavoriteMultiplier:  1.5,
		WantToConsumeWeight: 0.25,
	}
	if *got != want {
		t.Errorf("got %+v, want %+v", *got, want)
	}
}

func TestLoadTasteCfgInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"TASTE_ORTHOGONALIZE", "maybe"},
		{"TASTE_TENDENCY_THRESHOLD", "1"},
		{"TASTE_TENDENCY_THRESHOLD", "-0.1"},
		{"TASTE_RATING_MIDPOINT", "7"},
		{"TASTE_FAVORITE_MULTIPLIER", "0.5"},
		{"TASTE_WANT_TO_CONSUME_WEIGHT", "abc"},
		{"TASTE_RECENCY_HALF_LIFE", "-1h"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if _, err := loadTasteCfg(); !errors.Is(err, e.ErrIncorrectEnvVariable) {
				t.Fatalf("err = %v, want ErrIncorrectEnvVariable", err)
			}
		})
	}
}

func TestLoadRecommendCfg(t *testing.T) {
	t.Setenv("RECOMMEND_DEFAULT_ALPHA", "0.5")
	t.Setenv("RECOMMEND_MEDIA_TIMEOUT", "750ms")
	t.Setenv("RECOMMEND_ALPHA_HEURISTIC", "false")

	got, err := loadRecommendCfg()
	if err != nil {
		t.Fatalf("loadRecommendCfg: %v", err)
	}

	if got.DefaultAlpha != 0.5 || got.MediaTypeTimeout != 750*time.Millisecond || got.UseAlphaHeuristic {
		t.Errorf("unexpected config %+v", *got)
	}
	if got.DefaultTopK != 10 || got.MaxTopK != 50 || got.OverFetchFactor != 3 {
		t.Errorf("defaults not applied: %+v", *got)
	}
}

func TestLoadRecommendCfgInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"alpha above one", map[string]string{"RECOMMEND_DEFAULT_ALPHA": "1.2"}},
		{"zero overfetch", map[string]string{"RECOMMEND_OVERFETCH": "0"}},
		{"zero timeout", map[string]string{"RECOMMEND_MEDIA_TIMEOUT": "0s"}},
		{"max below default", map[string]string{"RECOMMEND_DEFAULT_TOP_K": "20", "RECOMMEND_MAX_TOP_K": "5"}},
		{"bad heuristic flag", map[string]string{"RECOMMEND_ALPHA_HEURISTIC": "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := loadRecommendCfg(); !errors.Is(err, e.ErrIncorrectEnvVariable) {
				t.Fatalf("err = %v, want ErrIncorrectEnvVariable", err)
			}
		})
	}
}

func TestLoadMLServiceCfg(t *testing.T) {
	t.Setenv("ML_HOST", "embedder")
	t.Setenv("ML_BATCH_SIZE", "64")

	got, err := loadMLServiceCfg()
	if err != nil {
		t.Fatalf("loadMLServiceCfg: %v", err)
	}
	if got.Addr != "embedder:50051" || got.BatchSize != 64 || got.Model != "all-MiniLM-L6-v2" {
		t.Errorf("unexpected config %+v", *got)
	}
	if got.MaxRetries != 1 {
		t.Errorf("embedding calls must make a single attempt by default, got %d", got.MaxRetries)
	}

	t.Setenv("ML_MAX_RETRIES", "0")
	if _, err := loadMLServiceCfg(); !errors.Is(err, e.ErrIncorrectEnvVariable) {
		t.Errorf("err = %v, want ErrIncorrectEnvVariable", err)
	}
}

func TestLoadKafkaCfgRequiresBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")

	if _, err := loadKafkaCfg(); err == nil {
		t.Fatal("expected error without KAFKA_BROKERS")
	}

	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	got, err := loadKafkaCfg()
	if err != nil {
		t.Fatalf("loadKafkaCfg: %v", err)
	}
	if len(got.Brokers) != 2 {
		t.Errorf("brokers = %v", got.Brokers)
	}
}

func TestLoadRedisCfg(t *testing.T) {
	t.Setenv("REDIS_POOL_SIZE", "20")
	t.Setenv("READ_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "4s")

	got, err := loadRedisCfg(logger.NewNopLogger())
	if err != nil {
		t.Fatalf("loadRedisCfg: %v", err)
	}
	if got.PoolSize != 20 || got.Timeout != 4*time.Second || got.ProfileTTL != 10*time.Minute {
		t.Errorf("unexpected config %+v", *got)
	}

	t.Setenv("REDIS_POOL_SIZE", "-1")
	if _, err := loadRedisCfg(logger.NewNopLogger()); !errors.Is(err, e.ErrIncorrectEnvVariable) {
		t.Errorf("err = %v, want ErrIncorrectEnvVariable", err)
	}
}
