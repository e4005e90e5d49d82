package ml_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DRSN-tech/spectra-backend/internal/cfg"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/jitter"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// EmbedTextsMethod — полный gRPC-метод ML-сервиса, возвращающего эмбеддинги текстов.
const EmbedTextsMethod = "/ml.v1.EmbeddingService/EmbedTexts"

// MLService клиент для взаимодействия с внешним ML-сервисом эмбеддингов
type MLService struct {
	conn          grpc.ClientConnInterface
	model         string
	batchSize     int
	maxConcurrent int
	maxRetries    int
	retryBase     time.Duration
	retryMax      time.Duration
	logger        logger.Logger
}

func NewMLService(conn grpc.ClientConnInterface, cfg *cfg.MLServiceCfg, logger logger.Logger) *MLService {
	return &MLService{
		conn:          conn,
		model:         cfg.Model,
		batchSize:     max(cfg.BatchSize, 1),
		maxConcurrent: max(cfg.MaxConcurrent, 1),
		maxRetries:    max(cfg.MaxRetries, 1),
		retryBase:     time.Second,
		retryMax:      30 * time.Second,
		logger:        logger,
	}
}

// Embed возвращает эмбеддинги текстов в порядке входа. Тексты отправляются батчами,
// батчи идут параллельно с ограничением, временные ошибки повторяются с backoff.
func (m *MLService) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	const op = "MLService.Embed"

	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float64, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.maxConcurrent)

	for start := 0; start < len(texts); start += m.batchSize {
		end := min(start+m.batchSize, len(texts))
		g.Go(func() error {
			batch, err := m.embedBatchWithRetry(gctx, texts[start:end])
			if err != nil {
				return err
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, e.Wrap(op, e.Mark(e.ErrEmbeddingProvider, err))
	}

	return vectors, nil
}

func (m *MLService) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float64, error) {
	var vectors [][]float64
	attempt := 0

	err := jitter.Retry(ctx, m.maxRetries, m.retryBase, m.retryMax, isRetryable, func(ctx context.Context) error {
		attempt++
		var err error
		vectors, err = m.embedBatch(ctx, texts)
		if err != nil && attempt < m.maxRetries && isRetryable(err) {
			m.logger.Warnf("embedding batch of %d texts failed, retrying (attempt %d): %v", len(texts), attempt, err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("embedding batch failed after %d attempt(s): %w", attempt, err)
	}

	return vectors, nil
}

func (m *MLService) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	items := make([]any, len(texts))
	for i, t := range texts {
		items[i] = t
	}

	req, err := structpb.NewStruct(map[string]any{
		"texts": items,
		"model": m.model,
	})
	if err != nil {
		return nil, err
	}

	resp := &structpb.Struct{}
	if err := m.conn.Invoke(ctx, EmbedTextsMethod, req, resp); err != nil {
		return nil, err
	}

	return decodeVectors(resp, len(texts))
}

// decodeVectors разбирает ответ {"vectors": [[...], ...]} и проверяет согласованность размерностей.
func decodeVectors(resp *structpb.Struct, want int) ([][]float64, error) {
	rows := resp.GetFields()["vectors"].GetListValue().GetValues()
	if len(rows) != want {
		return nil, fmt.Errorf("ml service returned %d vectors for %d texts", len(rows), want)
	}

	vectors := make([][]float64, len(rows))
	for i, row := range rows {
		values := row.GetListValue().GetValues()
		if len(values) == 0 {
			return nil, e.ErrEmptyVectors
		}
		if i > 0 && len(values) != len(vectors[0]) {
			return nil, e.ErrDimensionMismatch
		}

		vec := make([]float64, len(values))
		for j, v := range values {
			vec[j] = v.GetNumberValue()
		}
		vectors[i] = vec
	}

	return vectors, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}
