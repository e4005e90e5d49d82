package taste

import (
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
)

func ptr(v float64) *float64 { return &v }

func TestAggregateSign(t *testing.T) {
	a := NewAggregator(2, DefaultAggregationPolicy())

	tests := []struct {
		name  string
		value float64
		sign  float64
	}{
		{"loved", 5, 1},
		{"hated", 1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := a.Aggregate([]RatedVector{{TasteVector: domain.TasteVector{0.8, -0.4}, Value: ptr(tt.value)}})
			if err != nil {
				t.Fatalf("Aggregate: %v", err)
			}
			if !approx(res.Vector[0], tt.sign*0.8) || !approx(res.Vector[1], tt.sign*-0.4) {
				t.Errorf("got %v", res.Vector)
			}
		})
	}
}

func TestAggregateWeightedMean(t *testing.T) {
	a := NewAggregator(2, DefaultAggregationPolicy())

	res, err := a.Aggregate([]RatedVector{
		{TasteVector: domain.TasteVector{1, 0}, Value: ptr(5)},   // w = 2
		{TasteVector: domain.TasteVector{0, 1}, Value: ptr(2)},   // w = -1
		{TasteVector: domain.TasteVector{1, 1}, Value: ptr(3)},   // w = 0
		{TasteVector: domain.TasteVector{1, 1}, Value: nil},      // исключена
		{TasteVector: domain.TasteVector{1, 1, 1}, Value: ptr(5)}, // чужая длина
	})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if !approx(res.Vector[0], 2.0/3) || !approx(res.Vector[1], -1.0/3) {
		t.Errorf("got %v", res.Vector)
	}
	if res.Eligible != 3 || res.Skipped != 1 {
		t.Errorf("eligible=%d skipped=%d", res.Eligible, res.Skipped)
	}
}

func TestAggregateFavoriteMonotonicity(t *testing.T) {
	a := NewAggregator(2, DefaultAggregationPolicy())
	liked := domain.TasteVector{1, 0}
	other := domain.TasteVector{0, 1}

	base, err := a.Aggregate([]RatedVector{
		{TasteVector: liked, Value: ptr(4)},
		{TasteVector: other, Value: ptr(4)},
	})
	if err != nil {
		t.Fatal(err)
	}
	fav, err := a.Aggregate([]RatedVector{
		{TasteVector: liked, Value: ptr(4), Favorite: true},
		{TasteVector: other, Value: ptr(4)},
	})
	if err != nil {
		t.Fatal(err)
	}

	if Cosine(fav.Vector, liked) <= Cosine(base.Vector, liked) {
		t.Errorf("favorite did not pull profile towards item: %v vs %v", fav.Vector, base.Vector)
	}
}

func TestAggregateWantToConsume(t *testing.T) {
	a := NewAggregator(2, DefaultAggregationPolicy())

	res, err := a.Aggregate([]RatedVector{{TasteVector: domain.TasteVector{-0.5, 0.5}, WantToConsume: true}})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !approx(res.Vector[0], -0.5) || !approx(res.Vector[1], 0.5) {
		t.Errorf("got %v", res.Vector)
	}
}

func TestAggregateInsufficientData(t *testing.T) {
	a := NewAggregator(3, DefaultAggregationPolicy())

	tests := []struct {
		name    string
		ratings []RatedVector
	}{
		{"empty", nil},
		{"only neutral", []RatedVector{{TasteVector: domain.TasteVector{1, 1, 1}, Value: ptr(3)}}},
		{"only unrated", []RatedVector{{TasteVector: domain.TasteVector{1, 1, 1}}}},
		{"only wrong length", []RatedVector{{TasteVector: domain.TasteVector{1}, Value: ptr(5)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := a.Aggregate(tt.ratings)
			if !errors.Is(err, e.ErrInsufficientData) {
				t.Fatalf("got %v, want ErrInsufficientData", err)
			}
			if len(res.Vector) != 3 || res.Vector[0] != 0 || res.Vector[1] != 0 || res.Vector[2] != 0 {
				t.Errorf("expected zero vector, got %v", res.Vector)
			}
		})
	}
}

func TestAggregateRecencyDecay(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	policy := DefaultAggregationPolicy()
	policy.RecencyHalfLife = 24 * time.Hour
	a := NewAggregator(2, policy)
	a.now = func() time.Time { return now }

	w, ok := a.Weight(RatedVector{Value: ptr(5), RatedAt: now.Add(-24 * time.Hour)})
	if !ok || !approx(w, 1) {
		t.Errorf("weight after one half-life = %v, want 1", w)
	}

	res, err := a.Aggregate([]RatedVector{
		{TasteVector: domain.TasteVector{1, 0}, Value: ptr(5), RatedAt: now},
		{TasteVector: domain.TasteVector{0, 1}, Value: ptr(5), RatedAt: now.Add(-48 * time.Hour)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Vector[0] <= res.Vector[1] {
		t.Errorf("recent rating must dominate: %v", res.Vector)
	}
}
