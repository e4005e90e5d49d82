package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/internal/metrics"
	"github.com/DRSN-tech/spectra-backend/internal/taste"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
	"github.com/google/uuid"
)

// Таймаут фоновой записи в кэш.
const cacheWriteTimeout = 500 * time.Millisecond

// TasteUseCase строит векторы вкуса по тексту и по истории оценок.
type TasteUseCase struct {
	embedder   EmbeddingInfra
	projector  *taste.Projector
	aggregator *taste.Aggregator
	ratingRepo RatingRepository
	cacheRepo  CacheRepository
	logger     logger.Logger
}

func NewTasteUC(
	embedder EmbeddingInfra,
	projector *taste.Projector,
	aggregator *taste.Aggregator,
	ratingRepo RatingRepository,
	cacheRepo CacheRepository,
	logger logger.Logger,
) *TasteUseCase {
	return &TasteUseCase{
		embedder:   embedder,
		projector:  projector,
		aggregator: aggregator,
		ratingRepo: ratingRepo,
		cacheRepo:  cacheRepo,
		logger:     logger,
	}
}

// AnalyzeTaste эмбеддит текст и проецирует его на измерения вкуса.
func (t *TasteUseCase) AnalyzeTaste(ctx context.Context, req *AnalyzeTasteReq) (*AnalyzeTasteRes, error) {
	const op = "TasteUseCase.AnalyzeTaste"

	_, vector, breakdown, err := t.analyzeText(ctx, req.Text)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewAnalyzeTasteRes(vector, breakdown), nil
}

// ListDimensions возвращает определения измерений в порядке компонент вектора.
func (t *TasteUseCase) ListDimensions(_ context.Context) []domain.DimensionDefinition {
	return t.projector.Basis().Definitions()
}

// ComputeUserTasteProfile агрегирует оценки пользователя в профиль вкуса.
// Профиль читается из кэша, при промахе вычисляется и кэшируется в фоне.
func (t *TasteUseCase) ComputeUserTasteProfile(ctx context.Context, userID string) (*domain.TasteProfile, error) {
	const op = "TasteUseCase.ComputeUserTasteProfile"

	if err := validateUserID(userID); err != nil {
		return nil, e.Wrap(op, err)
	}

	cached, err := t.cacheRepo.GetProfile(ctx, userID)
	if err != nil {
		t.logger.Warnf("Failed to read taste profile from cache: %v", e.Wrap(op, err))
	}
	if cached != nil && len(cached.TasteVector) == t.projector.Basis().Len() {
		metrics.RecordProfileCache(true)
		return cached, nil
	}
	metrics.RecordProfileCache(false)

	// Поколение читается до оценок: инвалидация между чтением и записью отменит запись в кэш
	generation, genErr := t.cacheRepo.ProfileGeneration(ctx, userID)
	if genErr != nil {
		t.logger.Warnf("Failed to read taste profile generation: %v", e.Wrap(op, genErr))
	}

	rated, err := t.ratingRepo.ListRatedItems(ctx, userID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	ratings := make([]taste.RatedVector, 0, len(rated))
	for _, r := range rated {
		ratings = append(ratings, taste.RatedVector{
			TasteVector:   r.TasteVector,
			Value:         r.Rating.Value,
			Favorite:      r.Rating.Favorite,
			WantToConsume: r.Rating.WantToConsume,
			RatedAt:       r.Rating.RatedAt(),
		})
	}

	res, err := t.aggregator.Aggregate(ratings)
	if res.Skipped > 0 {
		t.logger.Warnf("Skipped %d ratings with malformed taste vectors, user_id: %s", res.Skipped, userID)
	}
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	profile := &domain.TasteProfile{
		UserID:      userID,
		TasteVector: res.Vector,
		Breakdown:   t.projector.Breakdown(res.Vector),
		NumRatings:  res.Eligible,
	}

	if genErr != nil {
		return profile, nil
	}

	// Фоновое добавление профиля в кэш
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()

		if err := t.cacheRepo.SetProfile(bgCtx, profile, generation); err != nil {
			t.logger.Warnf("Failed to cache taste profile in background: %v", e.Wrap(op, err))
		}
	}()

	return profile, nil
}

// analyzeText возвращает эмбеддинг текста, его вектор вкуса и расшифровку.
func (t *TasteUseCase) analyzeText(ctx context.Context, text string) ([]float64, domain.TasteVector, []domain.DimensionScore, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, nil, e.Mark(e.ErrInvalidQuery, e.ErrEmptyText)
	}

	embedding, err := t.embedText(ctx, text)
	if err != nil {
		return nil, nil, nil, err
	}

	vector, breakdown, err := t.projector.Project(embedding)
	if err != nil {
		return nil, nil, nil, e.Mark(e.ErrEmbeddingProvider, err)
	}

	return embedding, vector, breakdown, nil
}

// embedText запрашивает эмбеддинг одного текста у ML-сервиса.
func (t *TasteUseCase) embedText(ctx context.Context, text string) ([]float64, error) {
	vectors, err := t.embedder.Embed(ctx, []string{text})
	metrics.RecordEmbedding(err)
	if err != nil {
		return nil, e.Mark(e.ErrEmbeddingProvider, err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, e.Mark(e.ErrEmbeddingProvider, e.ErrEmptyVectors)
	}

	return vectors[0], nil
}

// validateUserID проверяет, что идентификатор пользователя — UUID.
func validateUserID(userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return e.Mark(e.ErrInvalidQuery, fmt.Errorf("%w: %q", e.ErrInvalidUserID, userID))
	}
	return nil
}

func isInsufficientData(err error) bool {
	return errors.Is(err, e.ErrInsufficientData)
}
