package recommend

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/internal/taste"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
)

type fakeStore struct {
	mu      sync.Mutex
	items   map[domain.MediaType][]domain.Candidate
	errs    map[domain.MediaType]error
	block   map[domain.MediaType]bool
	queries []domain.NeighborQuery
}

func (f *fakeStore) NearestNeighbors(ctx context.Context, q domain.NeighborQuery) ([]domain.Candidate, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if f.block[q.MediaType] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.errs[q.MediaType]; err != nil {
		return nil, err
	}

	items := f.items[q.MediaType]
	if len(items) > q.K {
		items = items[:q.K]
	}
	return append([]domain.Candidate(nil), items...), nil
}

func newTestEngine(t *testing.T, store ItemStore, cfg Config) *Engine {
	t.Helper()
	defs := []domain.DimensionDefinition{
		{ID: "tone", Name: "Dark / Light", PositivePrompt: "light", NegativePrompt: "dark"},
		{ID: "energy", Name: "Calm / Intense", PositivePrompt: "intense", NegativePrompt: "calm"},
	}
	basis, err := taste.NewBasisFromVectors(defs, [][]float64{{1, 0}, {0, 1}}, taste.BasisOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return NewEngine(store, basis, cfg, logger.NewNopLogger())
}

func alphaPtr(v float64) *float64 { return &v }

func approx(a, b, eps float64) bool { return math.Abs(a-b) < eps }

func movie(id string, tv domain.TasteVector, emb []float64) domain.Candidate {
	return domain.Candidate{ItemID: id, MediaType: domain.MediaTypeMovie, TasteVector: tv, Embedding: emb}
}

func TestRecommendEndToEnd(t *testing.T) {
	store := &fakeStore{items: map[domain.MediaType][]domain.Candidate{
		domain.MediaTypeMovie: {
			movie("B", domain.TasteVector{-0.7, 0.6}, nil),
			movie("A", domain.TasteVector{0.8, 0.1}, nil),
		},
	}}
	en := newTestEngine(t, store, DefaultConfig())

	res, err := en.Recommend(context.Background(),
		Query{TasteVector: domain.TasteVector{0.9, 0}},
		Options{MediaTypes: []domain.MediaType{domain.MediaTypeMovie}, TopK: 5},
	)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	got := res.Groups[domain.MediaTypeMovie]
	if len(got) != 2 || got[0].ItemID != "A" || got[1].ItemID != "B" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if !approx(got[0].TasteScore, 0.99, 0.01) || !approx(got[1].TasteScore, -0.76, 0.01) {
		t.Errorf("taste scores = %v, %v", got[0].TasteScore, got[1].TasteScore)
	}
	if got[0].SemanticScore != 0 {
		t.Errorf("semantic score without embedding must be 0, got %v", got[0].SemanticScore)
	}
	if !approx(got[0].Contributions[0], 0.72, 1e-9) || got[0].Contributions[1] != 0 {
		t.Errorf("contributions = %v", got[0].Contributions)
	}
}

func TestRecommendHybrid(t *testing.T) {
	store := &fakeStore{items: map[domain.MediaType][]domain.Candidate{
		domain.MediaTypeMovie: {
			movie("A", domain.TasteVector{0.9, math.Sqrt(1 - 0.81)}, []float64{0.1, math.Sqrt(1 - 0.01)}),
			movie("B", domain.TasteVector{0.2, math.Sqrt(1 - 0.04)}, []float64{0.95, math.Sqrt(1 - 0.9025)}),
		},
	}}
	en := newTestEngine(t, store, DefaultConfig())

	res, err := en.Recommend(context.Background(),
		Query{TasteVector: domain.TasteVector{1, 0}, Embedding: []float64{1, 0}, Alpha: alphaPtr(0.5)},
		Options{MediaTypes: []domain.MediaType{domain.MediaTypeMovie}, TopK: 2},
	)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	got := res.Groups[domain.MediaTypeMovie]
	if got[0].ItemID != "B" {
		t.Fatalf("B must rank above A: %+v", got)
	}
	if !approx(got[0].FinalScore, 0.575, 1e-9) || !approx(got[1].FinalScore, 0.5, 1e-9) {
		t.Errorf("final scores = %v, %v", got[0].FinalScore, got[1].FinalScore)
	}
	if res.Alpha != 0.5 {
		t.Errorf("alpha = %v", res.Alpha)
	}
}

func TestRecommendAlphaExtremes(t *testing.T) {
	// X ближе по вкусу, Y ближе по смыслу.
	store := &fakeStore{items: map[domain.MediaType][]domain.Candidate{
		domain.MediaTypeMovie: {
			movie("X", domain.TasteVector{1, 0}, []float64{0, 1}),
			movie("Y", domain.TasteVector{0, 1}, []float64{1, 0}),
		},
	}}
	en := newTestEngine(t, store, DefaultConfig())
	q := Query{TasteVector: domain.TasteVector{1, 0}, Embedding: []float64{1, 0}}

	tests := []struct {
		alpha float64
		first string
	}{
		{1, "X"},
		{0, "Y"},
	}

	for _, tt := range tests {
		q.Alpha = alphaPtr(tt.alpha)
		res, err := en.Recommend(context.Background(), q, Options{MediaTypes: []domain.MediaType{domain.MediaTypeMovie}, TopK: 2})
		if err != nil {
			t.Fatalf("alpha=%v: %v", tt.alpha, err)
		}
		if got := res.Groups[domain.MediaTypeMovie][0].ItemID; got != tt.first {
			t.Errorf("alpha=%v: first = %s, want %s", tt.alpha, got, tt.first)
		}
	}
}

func TestRecommendTopKAndExclusion(t *testing.T) {
	store := &fakeStore{items: map[domain.MediaType][]domain.Candidate{
		domain.MediaTypeMovie: {
			movie("m1", domain.TasteVector{1, 0}, nil),
			movie("m2", domain.TasteVector{0.9, 0.1}, nil),
			movie("m3", domain.TasteVector{0.5, 0.5}, nil),
			movie("m4", domain.TasteVector{0, 1}, nil),
			movie("m5", domain.TasteVector{-1, 0}, nil),
		},
	}}
	en := newTestEngine(t, store, DefaultConfig())

	res, err := en.Recommend(context.Background(),
		Query{TasteVector: domain.TasteVector{1, 0}},
		Options{MediaTypes: []domain.MediaType{domain.MediaTypeMovie}, TopK: 2, ExcludeIDs: []string{"m1"}},
	)
	if err != nil {
		t.Fatal(err)
	}

	got := res.Groups[domain.MediaTypeMovie]
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	for _, r := range got {
		if r.ItemID == "m1" {
			t.Fatal("excluded item returned")
		}
	}
	if got[0].ItemID != "m2" || got[1].ItemID != "m3" {
		t.Errorf("unexpected order: %s, %s", got[0].ItemID, got[1].ItemID)
	}
}

func TestRecommendTieBreak(t *testing.T) {
	store := &fakeStore{items: map[domain.MediaType][]domain.Candidate{
		domain.MediaTypeMovie: {
			movie("c", domain.TasteVector{1, 0}, nil),
			movie("a", domain.TasteVector{1, 0}, nil),
			movie("b", domain.TasteVector{1, 0}, nil),
		},
	}}
	en := newTestEngine(t, store, DefaultConfig())

	res, err := en.Recommend(context.Background(),
		Query{TasteVector: domain.TasteVector{1, 0}},
		Options{MediaTypes: []domain.MediaType{domain.MediaTypeMovie}, TopK: 3},
	)
	if err != nil {
		t.Fatal(err)
	}

	got := res.Groups[domain.MediaTypeMovie]
	if got[0].ItemID != "a" || got[1].ItemID != "b" || got[2].ItemID != "c" {
		t.Errorf("ties must be ordered by id: %v %v %v", got[0].ItemID, got[1].ItemID, got[2].ItemID)
	}
}

func TestRecommendFanOut(t *testing.T) {
	store := &fakeStore{}
	en := newTestEngine(t, store, DefaultConfig())

	res, err := en.Recommend(context.Background(),
		Query{TasteVector: domain.TasteVector{1, 0}, Embedding: []float64{0, 1}},
		Options{TopK: 4},
	)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.MediaTypes) != 3 {
		t.Fatalf("empty media types must mean all, got %v", res.MediaTypes)
	}
	if len(store.queries) != 6 {
		t.Fatalf("got %d store queries, want 6", len(store.queries))
	}
	for _, q := range store.queries {
		if q.K != 12 {
			t.Errorf("over-fetch k = %d, want 12", q.K)
		}
	}
	for _, mt := range res.MediaTypes {
		if res.Groups[mt] == nil {
			t.Errorf("group %s must be empty, not nil", mt)
		}
	}
}

func TestRecommendInvalidQuery(t *testing.T) {
	en := newTestEngine(t, &fakeStore{}, DefaultConfig())
	tv := domain.TasteVector{1, 0}

	tests := []struct {
		name string
		q    Query
		opts Options
	}{
		{"no vectors", Query{}, Options{TopK: 1}},
		{"wrong taste length", Query{TasteVector: domain.TasteVector{1, 0, 0}}, Options{TopK: 1}},
		{"taste component above one", Query{TasteVector: domain.TasteVector{1.2, 0}}, Options{TopK: 1}},
		{"taste component below minus one", Query{TasteVector: domain.TasteVector{0, -1.01}}, Options{TopK: 1}},
		{"taste component NaN", Query{TasteVector: domain.TasteVector{math.NaN(), 0}}, Options{TopK: 1}},
		{"wrong embedding length", Query{Embedding: []float64{1}}, Options{TopK: 1}},
		{"zero top k", Query{TasteVector: tv}, Options{TopK: 0}},
		{"top k too large", Query{TasteVector: tv}, Options{TopK: 51}},
		{"alpha above one", Query{TasteVector: tv, Alpha: alphaPtr(1.5)}, Options{TopK: 1}},
		{"alpha NaN", Query{TasteVector: tv, Alpha: alphaPtr(math.NaN())}, Options{TopK: 1}},
		{"unknown media type", Query{TasteVector: tv}, Options{TopK: 1, MediaTypes: []domain.MediaType{"podcast"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := en.Recommend(context.Background(), tt.q, tt.opts)
			if !errors.Is(err, e.ErrInvalidQuery) {
				t.Fatalf("got %v, want ErrInvalidQuery", err)
			}
		})
	}
}

func TestRecommendRetrievalError(t *testing.T) {
	store := &fakeStore{errs: map[domain.MediaType]error{domain.MediaTypeBook: errors.New("connection refused")}}
	en := newTestEngine(t, store, DefaultConfig())

	_, err := en.Recommend(context.Background(), Query{TasteVector: domain.TasteVector{1, 0}}, Options{TopK: 3})
	if !errors.Is(err, e.ErrRetrieval) {
		t.Fatalf("got %v, want ErrRetrieval", err)
	}
}

func TestRecommendTimeoutDegrades(t *testing.T) {
	store := &fakeStore{
		items: map[domain.MediaType][]domain.Candidate{
			domain.MediaTypeMovie: {movie("m1", domain.TasteVector{1, 0}, nil)},
		},
		block: map[domain.MediaType]bool{domain.MediaTypeMusic: true},
	}
	cfg := DefaultConfig()
	cfg.MediaTypeTimeout = 20 * time.Millisecond
	en := newTestEngine(t, store, cfg)

	res, err := en.Recommend(context.Background(),
		Query{TasteVector: domain.TasteVector{1, 0}},
		Options{MediaTypes: []domain.MediaType{domain.MediaTypeMovie, domain.MediaTypeMusic}, TopK: 3},
	)
	if err != nil {
		t.Fatalf("timeout must degrade, got %v", err)
	}
	if len(res.Groups[domain.MediaTypeMovie]) != 1 {
		t.Errorf("movie group = %+v", res.Groups[domain.MediaTypeMovie])
	}
	if len(res.Groups[domain.MediaTypeMusic]) != 0 {
		t.Errorf("music group must be empty")
	}
	if len(res.Degraded) != 1 || res.Degraded[0] != domain.MediaTypeMusic {
		t.Errorf("degraded = %v", res.Degraded)
	}
}

func TestRecommendParentCancel(t *testing.T) {
	store := &fakeStore{block: map[domain.MediaType]bool{domain.MediaTypeMovie: true}}
	en := newTestEngine(t, store, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := en.Recommend(ctx, Query{TasteVector: domain.TasteVector{1, 0}}, Options{TopK: 1, MediaTypes: []domain.MediaType{domain.MediaTypeMovie}})
	if !errors.Is(err, e.ErrRetrieval) {
		t.Fatalf("got %v, want ErrRetrieval", err)
	}
}
