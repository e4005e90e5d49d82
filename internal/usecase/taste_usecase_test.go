package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
)

func TestAnalyzeTaste(t *testing.T) {
	h := newHarness(t)
	h.embedder.vectors["gloomy rainy jazz"] = []float64{-3, 1}

	res, err := h.taste.AnalyzeTaste(context.Background(), &AnalyzeTasteReq{Text: "  gloomy rainy jazz "})
	if err != nil {
		t.Fatalf("AnalyzeTaste: %v", err)
	}
	if len(res.TasteVector) != 2 || res.TasteVector[0] >= 0 || res.TasteVector[1] <= 0 {
		t.Errorf("unexpected vector %v", res.TasteVector)
	}
	if res.Breakdown[0].Tendency != "Dark & Melancholic" {
		t.Errorf("tendency = %q", res.Breakdown[0].Tendency)
	}
}

func TestAnalyzeTasteErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		emb  *fakeEmbedder
		want error
	}{
		{"empty text", "   ", &fakeEmbedder{}, e.ErrInvalidQuery},
		{"provider down", "anything", &fakeEmbedder{err: errors.New("unavailable")}, e.ErrEmbeddingProvider},
		{"wrong dimension", "anything", &fakeEmbedder{vectors: map[string][]float64{"anything": {1, 2, 3}}}, e.ErrEmbeddingProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.taste.embedder = tt.emb

			_, err := h.taste.AnalyzeTaste(context.Background(), &AnalyzeTasteReq{Text: tt.text})
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestListDimensions(t *testing.T) {
	h := newHarness(t)

	dims := h.taste.ListDimensions(context.Background())
	if len(dims) != 2 || dims[0].ID != "tone" || dims[1].ID != "energy" {
		t.Errorf("got %+v", dims)
	}
}

func TestComputeUserTasteProfile(t *testing.T) {
	h := newHarness(t)
	h.ratings.rated = []domain.RatedItem{
		{Rating: domain.Rating{ItemID: "a", Value: ptrF(5)}, TasteVector: domain.TasteVector{0.8, 0.2}},
		{Rating: domain.Rating{ItemID: "b", Value: ptrF(1)}, TasteVector: domain.TasteVector{-0.6, 0.4}},
		{Rating: domain.Rating{ItemID: "c"}, TasteVector: domain.TasteVector{1, 1}},
	}

	profile, err := h.taste.ComputeUserTasteProfile(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("ComputeUserTasteProfile: %v", err)
	}

	// (2*[0.8,0.2] - 2*[-0.6,0.4]) / 4
	if !approxEq(profile.TasteVector[0], 0.7) || !approxEq(profile.TasteVector[1], -0.1) {
		t.Errorf("vector = %v", profile.TasteVector)
	}
	if profile.NumRatings != 2 {
		t.Errorf("num ratings = %d, want 2", profile.NumRatings)
	}
	if profile.Breakdown[0].Tendency != "Light & Joyful" {
		t.Errorf("breakdown = %+v", profile.Breakdown)
	}
}

func TestComputeUserTasteProfileUsesCache(t *testing.T) {
	h := newHarness(t)
	cached := &domain.TasteProfile{UserID: testUserID, TasteVector: domain.TasteVector{0.1, 0.2}, NumRatings: 7}
	h.cache.profiles[testUserID] = cached
	h.ratings.err = errors.New("must not be called")

	profile, err := h.taste.ComputeUserTasteProfile(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("ComputeUserTasteProfile: %v", err)
	}
	if profile.NumRatings != 7 {
		t.Errorf("cached profile was not used: %+v", profile)
	}
}

func TestComputeUserTasteProfileInsufficientData(t *testing.T) {
	h := newHarness(t)
	h.ratings.rated = []domain.RatedItem{
		{Rating: domain.Rating{ItemID: "a", Value: ptrF(3)}, TasteVector: domain.TasteVector{0.8, 0.2}},
	}

	_, err := h.taste.ComputeUserTasteProfile(context.Background(), testUserID)
	if !errors.Is(err, e.ErrInsufficientData) {
		t.Fatalf("got %v, want ErrInsufficientData", err)
	}
}

func TestComputeUserTasteProfileInvalidUser(t *testing.T) {
	h := newHarness(t)

	_, err := h.taste.ComputeUserTasteProfile(context.Background(), "not-a-uuid")
	if !errors.Is(err, e.ErrInvalidUserID) || !errors.Is(err, e.ErrInvalidQuery) {
		t.Fatalf("got %v", err)
	}
}

// gatedCache задерживает первую фоновую запись профиля, пока тест её не отпустит.
type gatedCache struct {
	*fakeCache
	once    sync.Once
	entered chan struct{}
	release chan struct{}
	written chan struct{}
}

func newGatedCache() *gatedCache {
	return &gatedCache{
		fakeCache: newFakeCache(),
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
		written:   make(chan struct{}, 8),
	}
}

func (g *gatedCache) SetProfile(ctx context.Context, p *domain.TasteProfile, generation int64) error {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	err := g.fakeCache.SetProfile(ctx, p, generation)
	g.written <- struct{}{}
	return err
}

func TestComputeUserTasteProfileLateCacheWriteIsDropped(t *testing.T) {
	h := newHarness(t)
	cache := newGatedCache()
	h.taste.cacheRepo = cache
	h.catalog.cacheRepo = cache
	h.items = newFakeItemRepo(&domain.Item{ID: "a", Title: "Amélie"})
	h.catalog.itemRepo = h.items
	h.ratings.rated = []domain.RatedItem{
		{Rating: domain.Rating{UserID: testUserID, ItemID: "a", Value: ptrF(5)}, TasteVector: domain.TasteVector{0.8, 0.2}},
	}
	ctx := context.Background()

	before, err := h.taste.ComputeUserTasteProfile(ctx, testUserID)
	if err != nil {
		t.Fatalf("ComputeUserTasteProfile: %v", err)
	}
	<-cache.entered

	// Оценка меняется, пока старый профиль ещё не записан в кэш
	h.ratings.rated[0].Rating.Value = ptrF(1)
	if _, err := h.catalog.UpsertRating(ctx, &UpsertRatingReq{UserID: testUserID, ItemID: "a", Value: ptrF(1)}); err != nil {
		t.Fatalf("UpsertRating: %v", err)
	}

	close(cache.release)
	<-cache.written

	after, err := h.taste.ComputeUserTasteProfile(ctx, testUserID)
	if err != nil {
		t.Fatalf("ComputeUserTasteProfile: %v", err)
	}
	if !approxEq(before.TasteVector[0], 0.8) {
		t.Fatalf("before = %v", before.TasteVector)
	}
	if !approxEq(after.TasteVector[0], -0.8) || !approxEq(after.TasteVector[1], -0.2) {
		t.Errorf("after = %v, want [-0.8 -0.2] from current ratings", after.TasteVector)
	}
}

func TestComputeUserTasteProfileCachesCurrentGeneration(t *testing.T) {
	h := newHarness(t)
	cache := newGatedCache()
	close(cache.release)
	h.taste.cacheRepo = cache
	h.ratings.rated = []domain.RatedItem{
		{Rating: domain.Rating{UserID: testUserID, ItemID: "a", Value: ptrF(4)}, TasteVector: domain.TasteVector{0.5, 0.5}},
	}

	if _, err := h.taste.ComputeUserTasteProfile(context.Background(), testUserID); err != nil {
		t.Fatalf("ComputeUserTasteProfile: %v", err)
	}
	<-cache.written

	cached, _ := cache.GetProfile(context.Background(), testUserID)
	if cached == nil || !approxEq(cached.TasteVector[0], 0.5) {
		t.Errorf("cached profile = %+v", cached)
	}
}

func approxEq(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
