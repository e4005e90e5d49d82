package qdrant

import (
	"context"
	"errors"
	"fmt"

	"github.com/DRSN-tech/spectra-backend/internal/cfg"
	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/pkg/clients"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
	"github.com/sony/gobreaker/v2"
)

// ItemStore хранит точки каталога в Qdrant и ищет ближайших соседей
// в пространстве вкуса или эмбеддингов. Запросы идут через circuit breaker.
type ItemStore struct {
	client  *qdrant.Client
	cfg     *cfg.QdrantCfg
	breaker *gobreaker.CircuitBreaker[[]*qdrant.ScoredPoint]
}

func NewItemStore(client *qdrant.Client, cfg *cfg.QdrantCfg, log logger.Logger) *ItemStore {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	breaker := gobreaker.NewCircuitBreaker[[]*qdrant.ScoredPoint](gobreaker.Settings{
		Name:        "qdrant-" + cfg.QdrantCollectionName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Отмена и таймаут запроса на стороне вызывающего не говорят о недоступности Qdrant
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &ItemStore{
		client:  client,
		cfg:     cfg,
		breaker: breaker,
	}
}

// NearestNeighbors возвращает до q.K ближайших элементов заданного типа в пространстве q.Space.
func (s *ItemStore) NearestNeighbors(ctx context.Context, q domain.NeighborQuery) ([]domain.Candidate, error) {
	const op = "ItemStore.NearestNeighbors"

	using, err := vectorName(q.Space)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	points, err := s.breaker.Execute(func() ([]*qdrant.ScoredPoint, error) {
		return s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: s.cfg.QdrantCollectionName,
			Query:          qdrant.NewQuery(domain.TasteVector(q.Vector).Float32()...),
			Using:          qdrant.PtrOf(using),
			Filter:         neighborFilter(q),
			Limit:          qdrant.PtrOf(uint64(q.K)),
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	candidates := make([]domain.Candidate, 0, len(points))
	for _, p := range points {
		c, err := candidateFromPoint(p)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// Upsert сохраняет или заменяет точки каталога вместе с обоими векторами.
func (s *ItemStore) Upsert(ctx context.Context, points []domain.ItemPoint) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*qdrant.PointStruct, 0, len(points))
	for i := range points {
		structs = append(structs, pointStruct(&points[i]))
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.QdrantCollectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         structs,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), e.Mark(e.ErrRetrieval, err))
	}

	return nil
}

// GetPoints возвращает точки по идентификаторам элементов. Отсутствующие пропускаются.
func (s *ItemStore) GetPoints(ctx context.Context, itemIDs []string) ([]domain.ItemPoint, error) {
	const op = "ItemStore.GetPoints"

	if len(itemIDs) == 0 {
		return nil, nil
	}

	ids := make([]*qdrant.PointId, len(itemIDs))
	for i, id := range itemIDs {
		ids[i] = qdrant.NewIDUUID(domain.PointID(id))
	}

	retrieved, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.cfg.QdrantCollectionName,
		Ids:            ids,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, e.Wrap(op, e.Mark(e.ErrRetrieval, err))
	}

	points := make([]domain.ItemPoint, 0, len(retrieved))
	for _, p := range retrieved {
		point, err := itemPointFromRetrieved(p)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		points = append(points, point)
	}

	return points, nil
}

func vectorName(space domain.VectorSpace) (string, error) {
	switch space {
	case domain.SpaceTaste:
		return clients.VectorTaste, nil
	case domain.SpaceEmbedding:
		return clients.VectorEmbedding, nil
	default:
		return "", e.Mark(e.ErrInvalidQuery, fmt.Errorf("unknown vector space %q", space))
	}
}
