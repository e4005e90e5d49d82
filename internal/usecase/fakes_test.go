package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DRSN-tech/spectra-backend/internal/cfg"
	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/internal/recommend"
	"github.com/DRSN-tech/spectra-backend/internal/taste"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
)

const testUserID = "5b0c7a3e-2f1d-4c6b-9a8e-1d2c3b4a5f60"

type fakeEmbedder struct {
	vectors map[string][]float64
	err     error
	calls   [][]string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			v = []float64{1, 0}
		}
		out[i] = v
	}
	return out, nil
}

type fakeItemRepo struct {
	mu    sync.Mutex
	items map[string]*domain.Item
}

func newFakeItemRepo(items ...*domain.Item) *fakeItemRepo {
	r := &fakeItemRepo{items: map[string]*domain.Item{}}
	for _, it := range items {
		r.items[it.ID] = it
	}
	return r
}

func (r *fakeItemRepo) Upsert(_ context.Context, item *domain.Item) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return item, nil
}

func (r *fakeItemRepo) GetByID(_ context.Context, id string) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, e.ErrItemNotFound
	}
	return it, nil
}

func (r *fakeItemRepo) GetItemsInfo(_ context.Context, ids []string) ([]domain.ItemInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ItemInfo
	for _, id := range ids {
		if it, ok := r.items[id]; ok {
			out = append(out, it.Info())
		}
	}
	return out, nil
}

type fakeIndex struct {
	points map[string]domain.ItemPoint
	err    error
}

func (f *fakeIndex) Upsert(_ context.Context, points []domain.ItemPoint) error {
	if f.err != nil {
		return f.err
	}
	if f.points == nil {
		f.points = map[string]domain.ItemPoint{}
	}
	for _, p := range points {
		f.points[p.ItemID] = p
	}
	return nil
}

func (f *fakeIndex) GetPoints(_ context.Context, ids []string) ([]domain.ItemPoint, error) {
	var out []domain.ItemPoint
	for _, id := range ids {
		if p, ok := f.points[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeRatingRepo struct {
	rated   []domain.RatedItem
	ratings map[string]domain.Rating
	err     error
}

func (f *fakeRatingRepo) Upsert(_ context.Context, r *domain.Rating) (*domain.Rating, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.ratings == nil {
		f.ratings = map[string]domain.Rating{}
	}
	saved := *r
	saved.ID = int64(len(f.ratings) + 1)
	f.ratings[r.ItemID] = saved
	return &saved, nil
}

func (f *fakeRatingRepo) Delete(_ context.Context, _ string, itemID string) (bool, error) {
	if _, ok := f.ratings[itemID]; !ok {
		return false, nil
	}
	delete(f.ratings, itemID)
	return true, nil
}

func (f *fakeRatingRepo) DeleteByUser(_ context.Context, _ string) (int64, error) {
	n := int64(len(f.ratings))
	f.ratings = nil
	return n, nil
}

func (f *fakeRatingRepo) ListByUser(_ context.Context, _ string) ([]domain.Rating, error) {
	var out []domain.Rating
	for _, r := range f.rated {
		out = append(out, r.Rating)
	}
	for _, r := range f.ratings {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRatingRepo) ListRatedItems(_ context.Context, _ string) ([]domain.RatedItem, error) {
	return f.rated, f.err
}

func (f *fakeRatingRepo) ListUserIDsByItems(_ context.Context, itemIDs []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, r := range f.rated {
		for _, id := range itemIDs {
			if r.Rating.ItemID == id && !seen[r.Rating.UserID] {
				seen[r.Rating.UserID] = true
				out = append(out, r.Rating.UserID)
			}
		}
	}
	return out, nil
}

type fakeOutbox struct {
	events []*OutboxEvent
}

func (f *fakeOutbox) Create(_ context.Context, ev *OutboxEvent) (*OutboxEvent, error) {
	f.events = append(f.events, ev)
	return ev, nil
}

func (f *fakeOutbox) GetAndMarkAsProcessing(context.Context, int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutbox) MarkAsProcessed(context.Context, int64) error { return nil }

type fakeCache struct {
	mu              sync.Mutex
	profiles        map[string]*domain.TasteProfile
	generations     map[string]int64
	items           map[string]domain.ItemInfo
	deletedProfiles []string
	getErr          error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		profiles:    map[string]*domain.TasteProfile{},
		generations: map[string]int64{},
		items:       map[string]domain.ItemInfo{},
	}
}

func (c *fakeCache) GetItems(_ context.Context, ids []string) (map[string]domain.ItemInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	out := map[string]domain.ItemInfo{}
	for _, id := range ids {
		if it, ok := c.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func (c *fakeCache) SetItems(_ context.Context, items []domain.ItemInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range items {
		c.items[it.ID] = it
	}
	return nil
}

func (c *fakeCache) DeleteItems(_ context.Context, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.items, id)
	}
	return nil
}

func (c *fakeCache) GetProfile(_ context.Context, userID string) (*domain.TasteProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.profiles[userID], nil
}

func (c *fakeCache) ProfileGeneration(_ context.Context, userID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[userID], nil
}

func (c *fakeCache) SetProfile(_ context.Context, p *domain.TasteProfile, generation int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[p.UserID] != generation {
		return nil
	}
	c.profiles[p.UserID] = p
	return nil
}

func (c *fakeCache) DeleteProfile(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.profiles, userID)
	c.generations[userID]++
	c.deletedProfiles = append(c.deletedProfiles, userID)
	return nil
}

type fakeTx struct {
	calls int
}

func (f *fakeTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeEncoder struct{}

func (fakeEncoder) EncodeRatingEvent(ev *RatingEvent) ([]byte, error) {
	if ev.EventID == "" {
		return nil, errors.New("event id is required")
	}
	return []byte(string(ev.EventType) + ":" + ev.ItemID), nil
}

type fakeRecommender struct {
	queries []recommend.Query
	opts    []recommend.Options
	result  *recommend.Result
	err     error
}

func (f *fakeRecommender) Recommend(_ context.Context, q recommend.Query, opts recommend.Options) (*recommend.Result, error) {
	f.queries = append(f.queries, q)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	alpha := 0.7
	if q.Alpha != nil {
		alpha = *q.Alpha
	}
	return &recommend.Result{
		MediaTypes: []domain.MediaType{domain.MediaTypeMovie},
		Groups:     map[domain.MediaType][]domain.RecommendationResult{domain.MediaTypeMovie: {}},
		Alpha:      alpha,
	}, nil
}

func testProjector(t *testing.T) *taste.Projector {
	t.Helper()
	defs := []domain.DimensionDefinition{
		{ID: "tone", Name: "Emotional Tone", PositiveLabel: "Light & Joyful", NegativeLabel: "Dark & Melancholic", PositivePrompt: "light", NegativePrompt: "dark"},
		{ID: "energy", Name: "Energy", PositiveLabel: "Intense", NegativeLabel: "Calm", PositivePrompt: "intense", NegativePrompt: "calm"},
	}
	basis, err := taste.NewBasisFromVectors(defs, [][]float64{{1, 0}, {0, 1}}, taste.BasisOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return taste.NewProjector(basis, taste.DefaultTendencyThreshold)
}

func testRecommendCfg() *cfg.RecommendCfg {
	return &cfg.RecommendCfg{
		DefaultAlpha:      0.7,
		OverFetchFactor:   3,
		DefaultTopK:       10,
		MaxTopK:           50,
		UseAlphaHeuristic: true,
	}
}

type harness struct {
	embedder *fakeEmbedder
	items    *fakeItemRepo
	index    *fakeIndex
	ratings  *fakeRatingRepo
	outbox   *fakeOutbox
	cache    *fakeCache
	tx       *fakeTx
	engine   *fakeRecommender

	taste   *TasteUseCase
	rec     *RecommendationUseCase
	catalog *CatalogUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		embedder: &fakeEmbedder{vectors: map[string][]float64{}},
		items:    newFakeItemRepo(),
		index:    &fakeIndex{},
		ratings:  &fakeRatingRepo{},
		outbox:   &fakeOutbox{},
		cache:    newFakeCache(),
		tx:       &fakeTx{},
		engine:   &fakeRecommender{},
	}
	log := logger.NewNopLogger()
	projector := testProjector(t)
	aggregator := taste.NewAggregator(2, taste.DefaultAggregationPolicy())

	h.taste = NewTasteUC(h.embedder, projector, aggregator, h.ratings, h.cache, log)
	h.rec = NewRecommendationUC(h.taste, h.engine, h.items, h.index, h.ratings, h.cache, testRecommendCfg(), log)
	h.catalog = NewCatalogUC(h.embedder, projector, h.items, h.index, h.ratings, h.outbox, h.cache, fakeEncoder{}, h.tx, log)
	return h
}

func ptrF(v float64) *float64 { return &v }
