package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/internal/taste"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ItemStore — хранилище элементов с поиском ближайших соседей.
type ItemStore interface {
	NearestNeighbors(ctx context.Context, q domain.NeighborQuery) ([]domain.Candidate, error)
}

// Config — параметры ранжирования.
type Config struct {
	DefaultAlpha     float64
	OverFetchFactor  int
	MediaTypeTimeout time.Duration
	MaxTopK          int
}

// DefaultConfig возвращает параметры по умолчанию.
func DefaultConfig() Config {
	return Config{
		DefaultAlpha:     0.7,
		OverFetchFactor:  3,
		MediaTypeTimeout: 2 * time.Second,
		MaxTopK:          50,
	}
}

// Query — векторы запроса. Хотя бы один из них обязателен.
type Query struct {
	TasteVector domain.TasteVector
	Embedding   []float64
	// Вес вкуса в итоговой оценке; nil означает значение по умолчанию.
	Alpha *float64
}

// Options — параметры выдачи.
type Options struct {
	MediaTypes []domain.MediaType
	TopK       int
	ExcludeIDs []string
	MinYear    *int
	MaxYear    *int
}

// Result — рекомендации, сгруппированные по типам в порядке запроса.
type Result struct {
	MediaTypes []domain.MediaType
	Groups     map[domain.MediaType][]domain.RecommendationResult
	// Типы, запрос по которым не уложился в таймаут и вернулся пустым.
	Degraded []domain.MediaType
	Alpha    float64
}

// Engine выполняет поиск кандидатов и гибридное ранжирование.
type Engine struct {
	store         ItemStore
	tasteSize     int
	embeddingSize int
	cfg           Config
	log           logger.Logger
}

func NewEngine(store ItemStore, basis *taste.Basis, cfg Config, log logger.Logger) *Engine {
	def := DefaultConfig()
	if cfg.OverFetchFactor < 1 {
		cfg.OverFetchFactor = def.OverFetchFactor
	}
	if cfg.MediaTypeTimeout <= 0 {
		cfg.MediaTypeTimeout = def.MediaTypeTimeout
	}
	if cfg.DefaultAlpha < 0 || cfg.DefaultAlpha > 1 {
		cfg.DefaultAlpha = def.DefaultAlpha
	}

	return &Engine{
		store:         store,
		tasteSize:     basis.Len(),
		embeddingSize: basis.EmbeddingSize(),
		cfg:           cfg,
		log:           log,
	}
}

// Recommend ищет кандидатов по каждому типу в пространствах вкуса и эмбеддингов,
// объединяет их и ранжирует. Ошибка хранилища даёт ErrRetrieval, таймаут по типу
// даёт пустую группу и отметку в Degraded.
func (en *Engine) Recommend(ctx context.Context, q Query, opts Options) (*Result, error) {
	const op = "Engine.Recommend"

	alpha, mediaTypes, err := en.validate(q, opts)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	exclude := make(map[string]struct{}, len(opts.ExcludeIDs))
	for _, id := range opts.ExcludeIDs {
		exclude[id] = struct{}{}
	}

	groups := make([][]domain.RecommendationResult, len(mediaTypes))
	degraded := make([]bool, len(mediaTypes))

	g, gctx := errgroup.WithContext(ctx)
	for i, mt := range mediaTypes {
		g.Go(func() error {
			candidates, timedOut, err := en.fetch(gctx, q, opts, mt)
			if err != nil {
				return err
			}
			if timedOut {
				degraded[i] = true
				return nil
			}
			groups[i] = Rank(q, alpha, candidates, opts.TopK, exclude)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, e.Wrap(op, e.Mark(e.ErrRetrieval, err))
	}
	if err := ctx.Err(); err != nil {
		return nil, e.Wrap(op, e.Mark(e.ErrRetrieval, err))
	}

	res := &Result{
		MediaTypes: mediaTypes,
		Groups:     make(map[domain.MediaType][]domain.RecommendationResult, len(mediaTypes)),
		Alpha:      alpha,
	}
	for i, mt := range mediaTypes {
		if degraded[i] {
			res.Degraded = append(res.Degraded, mt)
			en.log.Warnf("Search for media type %s exceeded %s, group left empty", mt, en.cfg.MediaTypeTimeout)
		}
		if groups[i] == nil {
			groups[i] = []domain.RecommendationResult{}
		}
		res.Groups[mt] = groups[i]
	}

	return res, nil
}

// fetch выполняет до двух запросов ближайших соседей для одного типа с общим таймаутом.
func (en *Engine) fetch(ctx context.Context, q Query, opts Options, mt domain.MediaType) ([]domain.Candidate, bool, error) {
	tctx, cancel := context.WithTimeout(ctx, en.cfg.MediaTypeTimeout)
	defer cancel()

	base := domain.NeighborQuery{
		MediaType: mt,
		K:         opts.TopK * en.cfg.OverFetchFactor,
		Exclude:   opts.ExcludeIDs,
		MinYear:   opts.MinYear,
		MaxYear:   opts.MaxYear,
	}

	var tasteHits, embeddingHits []domain.Candidate
	g, gctx := errgroup.WithContext(tctx)
	if len(q.TasteVector) > 0 {
		nq := base
		nq.Space, nq.Vector = domain.SpaceTaste, q.TasteVector
		g.Go(func() (err error) {
			tasteHits, err = en.store.NearestNeighbors(gctx, nq)
			return err
		})
	}
	if len(q.Embedding) > 0 {
		nq := base
		nq.Space, nq.Vector = domain.SpaceEmbedding, q.Embedding
		g.Go(func() (err error) {
			embeddingHits, err = en.store.NearestNeighbors(gctx, nq)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("%s: %w", mt, err)
	}

	return append(tasteHits, embeddingHits...), false, nil
}

func (en *Engine) validate(q Query, opts Options) (float64, []domain.MediaType, error) {
	if len(q.TasteVector) == 0 && len(q.Embedding) == 0 {
		return 0, nil, e.Mark(e.ErrInvalidQuery, errors.New("neither taste vector nor embedding given"))
	}
	if len(q.TasteVector) > 0 && len(q.TasteVector) != en.tasteSize {
		return 0, nil, e.Mark(e.ErrInvalidQuery, fmt.Errorf("taste vector has %d components, want %d", len(q.TasteVector), en.tasteSize))
	}
	for i, v := range q.TasteVector {
		if math.IsNaN(v) || v < -1 || v > 1 {
			return 0, nil, e.Mark(e.ErrInvalidQuery, fmt.Errorf("taste vector component %d = %v out of [-1, 1]", i, v))
		}
	}
	if len(q.Embedding) > 0 && len(q.Embedding) != en.embeddingSize {
		return 0, nil, e.Mark(e.ErrInvalidQuery, fmt.Errorf("embedding has %d components, want %d", len(q.Embedding), en.embeddingSize))
	}
	if opts.TopK < 1 || (en.cfg.MaxTopK > 0 && opts.TopK > en.cfg.MaxTopK) {
		return 0, nil, e.Mark(e.ErrInvalidQuery, fmt.Errorf("top_k %d out of range", opts.TopK))
	}
	if opts.MinYear != nil && opts.MaxYear != nil && *opts.MinYear > *opts.MaxYear {
		return 0, nil, e.Mark(e.ErrInvalidQuery, errors.New("min_year is greater than max_year"))
	}

	alpha := en.cfg.DefaultAlpha
	if q.Alpha != nil {
		alpha = *q.Alpha
	}
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return 0, nil, e.Mark(e.ErrInvalidQuery, fmt.Errorf("alpha %v out of [0, 1]", alpha))
	}

	mediaTypes := opts.MediaTypes
	if len(mediaTypes) == 0 {
		mediaTypes = domain.AllMediaTypes()
	}
	seen := make(map[domain.MediaType]struct{}, len(mediaTypes))
	unique := make([]domain.MediaType, 0, len(mediaTypes))
	for _, mt := range mediaTypes {
		if !mt.Valid() {
			return 0, nil, e.Mark(e.ErrInvalidQuery, e.Wrap(string(mt), e.ErrInvalidMediaType))
		}
		if _, ok := seen[mt]; ok {
			continue
		}
		seen[mt] = struct{}{}
		unique = append(unique, mt)
	}

	return alpha, unique, nil
}
