package usecase

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/DRSN-tech/spectra-backend/internal/cfg"
	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/internal/intent"
	"github.com/DRSN-tech/spectra-backend/internal/metrics"
	"github.com/DRSN-tech/spectra-backend/internal/recommend"
	"github.com/DRSN-tech/spectra-backend/internal/taste"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
)

const (
	// Сколько измерений с наибольшим вкладом попадает в объяснение.
	explanationTopDimensions = 3
	generalAlignment         = "General aesthetic alignment"
)

// Источники запроса рекомендаций для метрик.
const (
	sourceText    = "text"
	sourceUser    = "user"
	sourceSimilar = "similar"
)

// RecommendationUseCase строит рекомендации по тексту, профилю пользователя или элементу.
type RecommendationUseCase struct {
	taste      *TasteUseCase
	engine     Recommender
	itemRepo   ItemRepository
	itemIndex  ItemIndex
	ratingRepo RatingRepository
	items      *itemInfoLoader
	cfg        *cfg.RecommendCfg
	logger     logger.Logger
}

func NewRecommendationUC(
	tasteUC *TasteUseCase,
	engine Recommender,
	itemRepo ItemRepository,
	itemIndex ItemIndex,
	ratingRepo RatingRepository,
	cacheRepo CacheRepository,
	cfg *cfg.RecommendCfg,
	logger logger.Logger,
) *RecommendationUseCase {
	return &RecommendationUseCase{
		taste:      tasteUC,
		engine:     engine,
		itemRepo:   itemRepo,
		itemIndex:  itemIndex,
		ratingRepo: ratingRepo,
		items:      &itemInfoLoader{itemRepo: itemRepo, cacheRepo: cacheRepo, logger: logger},
		cfg:        cfg,
		logger:     logger,
	}
}

// RecommendByText рекомендует по тексту запроса и/или явному вектору вкуса.
// Если α не задан, он подбирается по тексту запроса.
func (r *RecommendationUseCase) RecommendByText(ctx context.Context, req *RecommendReq) (*RecommendRes, error) {
	const op = "RecommendationUseCase.RecommendByText"

	res, err := r.recommendByText(ctx, req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	return res, nil
}

func (r *RecommendationUseCase) recommendByText(ctx context.Context, req *RecommendReq) (*RecommendRes, error) {
	started := time.Now()

	text := strings.TrimSpace(req.Text)
	if text == "" && len(req.TasteVector) == 0 {
		return nil, e.Mark(e.ErrInvalidQuery, e.ErrEmptyText)
	}

	query := recommend.Query{TasteVector: req.TasteVector, Alpha: req.Alpha}
	var breakdown []domain.DimensionScore
	if text != "" {
		embedding, vector, scores, err := r.taste.analyzeText(ctx, text)
		if err != nil {
			return nil, err
		}
		query.Embedding = embedding
		if len(query.TasteVector) == 0 {
			query.TasteVector, breakdown = vector, scores
		}
	}
	if breakdown == nil && len(query.TasteVector) == r.taste.projector.Basis().Len() {
		breakdown = r.taste.projector.Breakdown(query.TasteVector)
	}

	var reason string
	if query.Alpha == nil && r.cfg.UseAlphaHeuristic && text != "" {
		if alpha, why, ok := intent.SuggestAlpha(text); ok {
			query.Alpha, reason = &alpha, why
		}
	}

	res, err := r.run(ctx, query, recommend.Options{
		MediaTypes: req.MediaTypes,
		TopK:       r.topK(req.TopK),
		ExcludeIDs: req.ExcludeIDs,
		MinYear:    req.MinYear,
		MaxYear:    req.MaxYear,
	}, sourceText, started)
	if err != nil {
		return nil, err
	}

	res.TasteVector = query.TasteVector
	res.Breakdown = breakdown
	res.AlphaReason = reason
	return res, nil
}

// RecommendForUser рекомендует по профилю вкуса пользователя, исключая уже оценённое.
// Если оценок недостаточно и задан текст, рекомендует по тексту.
func (r *RecommendationUseCase) RecommendForUser(ctx context.Context, req *RecommendForUserReq) (*RecommendRes, error) {
	const op = "RecommendationUseCase.RecommendForUser"
	started := time.Now()

	var exclude []string
	if !req.IncludeRated {
		ids, err := r.ratedItemIDs(ctx, req.UserID)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		exclude = ids
	}

	profile, err := r.taste.ComputeUserTasteProfile(ctx, req.UserID)
	if err != nil {
		if isInsufficientData(err) && strings.TrimSpace(req.Text) != "" {
			r.logger.Infof("Not enough ratings for user %s, falling back to text query", req.UserID)
			res, err := r.recommendByText(ctx, &RecommendReq{
				Text:       req.Text,
				MediaTypes: req.MediaTypes,
				TopK:       req.TopK,
				Alpha:      req.Alpha,
				ExcludeIDs: exclude,
				MinYear:    req.MinYear,
				MaxYear:    req.MaxYear,
			})
			if err != nil {
				return nil, e.Wrap(op, err)
			}
			res.Fallback = true
			return res, nil
		}
		return nil, e.Wrap(op, err)
	}

	res, err := r.run(ctx, recommend.Query{TasteVector: profile.TasteVector, Alpha: req.Alpha}, recommend.Options{
		MediaTypes: req.MediaTypes,
		TopK:       r.topK(req.TopK),
		ExcludeIDs: exclude,
		MinYear:    req.MinYear,
		MaxYear:    req.MaxYear,
	}, sourceUser, started)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res.TasteVector = profile.TasteVector
	res.Breakdown = profile.Breakdown
	return res, nil
}

// FindSimilar ищет элементы, близкие к заданному по вкусу и смыслу. Сам элемент исключается.
func (r *RecommendationUseCase) FindSimilar(ctx context.Context, req *FindSimilarReq) (*RecommendRes, error) {
	const op = "RecommendationUseCase.FindSimilar"
	started := time.Now()

	if strings.TrimSpace(req.ItemID) == "" {
		return nil, e.Wrap(op, e.Mark(e.ErrInvalidQuery, e.ErrItemNotFound))
	}

	points, err := r.itemIndex.GetPoints(ctx, []string{req.ItemID})
	if err != nil {
		return nil, e.Wrap(op, e.Mark(e.ErrRetrieval, err))
	}
	if len(points) == 0 {
		return nil, e.Wrap(op, fmt.Errorf("%w: %s", e.ErrItemNotFound, req.ItemID))
	}
	source := points[0]

	res, err := r.run(ctx, recommend.Query{
		TasteVector: source.TasteVector,
		Embedding:   source.Embedding,
		Alpha:       req.Alpha,
	}, recommend.Options{
		MediaTypes: req.MediaTypes,
		TopK:       r.topK(req.TopK),
		ExcludeIDs: []string{req.ItemID},
	}, sourceSimilar, started)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res.TasteVector = source.TasteVector
	res.Breakdown = r.taste.projector.Breakdown(source.TasteVector)
	return res, nil
}

// ExplainMatch объясняет совпадение элемента с вектором вкуса по измерениям.
func (r *RecommendationUseCase) ExplainMatch(ctx context.Context, req *ExplainMatchReq) (*domain.MatchExplanation, error) {
	const op = "RecommendationUseCase.ExplainMatch"

	basis := r.taste.projector.Basis()
	if len(req.TasteVector) != basis.Len() {
		return nil, e.Wrap(op, e.Mark(e.ErrInvalidQuery,
			fmt.Errorf("taste vector has %d components, want %d", len(req.TasteVector), basis.Len())))
	}

	item, err := r.itemRepo.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if len(item.TasteVector) != basis.Len() {
		return nil, e.Wrap(op, fmt.Errorf("item %s has malformed taste vector: %w", item.ID, e.ErrDimensionMismatch))
	}

	return explain(basis.Definitions(), req.TasteVector, item), nil
}

// explain считает вклад каждого измерения и формирует фразу по трём самым весомым совпадениям.
func explain(defs []domain.DimensionDefinition, user domain.TasteVector, item *domain.Item) *domain.MatchExplanation {
	contributions := recommend.Contributions(user, item.TasteVector)

	matches := make([]domain.DimensionMatch, len(defs))
	for i, d := range defs {
		matches[i] = domain.DimensionMatch{
			DimensionID:  d.ID,
			Name:         d.Name,
			UserScore:    user[i],
			ItemScore:    item.TasteVector[i],
			Contribution: contributions[i],
			Aligned:      contributions[i] > 0,
		}
	}
	slices.SortStableFunc(matches, func(a, b domain.DimensionMatch) int {
		switch {
		case math.Abs(a.Contribution) > math.Abs(b.Contribution):
			return -1
		case math.Abs(a.Contribution) < math.Abs(b.Contribution):
			return 1
		default:
			return 0
		}
	})

	byID := make(map[string]domain.DimensionDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	var parts []string
	for _, m := range matches[:min(explanationTopDimensions, len(matches))] {
		if !m.Aligned {
			continue
		}
		label := byID[m.DimensionID].PositiveLabel
		if m.UserScore < 0 {
			label = byID[m.DimensionID].NegativeLabel
		}
		parts = append(parts, fmt.Sprintf("Both lean towards %s: %s", strings.ToLower(m.Name), strings.ToLower(label)))
	}

	explanation := generalAlignment
	if len(parts) > 0 {
		explanation = strings.Join(parts, ". ")
	}

	return &domain.MatchExplanation{
		Item:              item.Info(),
		OverallSimilarity: taste.Cosine(user, item.TasteVector),
		Matches:           matches,
		Explanation:       explanation,
	}
}

// run вызывает движок, обогащает результаты метаданными и пишет метрики.
func (r *RecommendationUseCase) run(ctx context.Context, q recommend.Query, opts recommend.Options, source string, started time.Time) (*RecommendRes, error) {
	result, err := r.engine.Recommend(ctx, q, opts)
	if err != nil {
		return nil, err
	}

	degraded := make([]string, len(result.Degraded))
	for i, mt := range result.Degraded {
		degraded[i] = string(mt)
	}
	metrics.RecordRecommend(source, time.Since(started), degraded)

	var ids []string
	for _, mt := range result.MediaTypes {
		for _, item := range result.Groups[mt] {
			ids = append(ids, item.ItemID)
		}
	}

	infos, err := r.items.load(ctx, ids)
	if err != nil {
		r.logger.Warnf("Failed to enrich recommendations with item metadata: %v", err)
		infos = nil
	}

	res := &RecommendRes{
		Groups:   make([]RecommendationGroup, 0, len(result.MediaTypes)),
		Alpha:    result.Alpha,
		Degraded: result.Degraded,
	}
	for _, mt := range result.MediaTypes {
		items := result.Groups[mt]
		for i := range items {
			if info, ok := infos[items[i].ItemID]; ok {
				items[i].Item = &info
			}
		}
		res.Groups = append(res.Groups, RecommendationGroup{MediaType: mt, Items: items})
	}

	return res, nil
}

func (r *RecommendationUseCase) ratedItemIDs(ctx context.Context, userID string) ([]string, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	ratings, err := r.ratingRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(ratings))
	for i, rt := range ratings {
		ids[i] = rt.ItemID
	}
	return ids, nil
}

func (r *RecommendationUseCase) topK(requested int) int {
	if requested == 0 {
		return r.cfg.DefaultTopK
	}
	return requested
}
