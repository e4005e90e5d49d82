package taste

import (
	"math"
	"time"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
)

// AggregationPolicy — правила перевода оценок в веса.
type AggregationPolicy struct {
	// Нейтральная оценка; вес оценки равен value - Midpoint.
	Midpoint float64
	// FavoriteMultiplier умножает вес избранного элемента.
	FavoriteMultiplier float64
	// Положительный вес элемента без оценки, но с флагом
	// «хочу посмотреть» или «избранное».
	WantToConsumeWeight float64
	// Период полураспада веса по давности оценки; 0 отключает затухание.
	RecencyHalfLife time.Duration
}

// DefaultAggregationPolicy возвращает политику по умолчанию.
func DefaultAggregationPolicy() AggregationPolicy {
	return AggregationPolicy{
		Midpoint:            3.0,
		FavoriteMultiplier:  1.5,
		WantToConsumeWeight: 0.25,
	}
}

// RatedVector — вектор вкуса оценённого элемента и сама оценка.
type RatedVector struct {
	TasteVector   domain.TasteVector
	Value         *float64
	Favorite      bool
	WantToConsume bool
	RatedAt       time.Time
}

// AggregateResult — вектор вкуса пользователя и статистика агрегации.
type AggregateResult struct {
	Vector   domain.TasteVector
	Eligible int
	Skipped  int
}

// Aggregator сводит историю оценок в вектор вкуса пользователя.
type Aggregator struct {
	k      int
	policy AggregationPolicy
	now    func() time.Time
}

func NewAggregator(k int, policy AggregationPolicy) *Aggregator {
	return &Aggregator{k: k, policy: policy, now: time.Now}
}

// Weight возвращает вес оценки и признак того, что она участвует в агрегации.
func (a *Aggregator) Weight(r RatedVector) (float64, bool) {
	var w float64
	switch {
	case r.Value != nil:
		w = *r.Value - a.policy.Midpoint
	case r.WantToConsume || r.Favorite:
		w = a.policy.WantToConsumeWeight
	default:
		return 0, false
	}

	if r.Favorite && a.policy.FavoriteMultiplier > 0 {
		w *= a.policy.FavoriteMultiplier
	}

	if a.policy.RecencyHalfLife > 0 && !r.RatedAt.IsZero() {
		age := a.now().Sub(r.RatedAt)
		if age > 0 {
			w *= math.Pow(0.5, float64(age)/float64(a.policy.RecencyHalfLife))
		}
	}

	return w, true
}

// Aggregate возвращает Σ w_j·v_j / Σ |w_j| с обрезкой компонент до [-1, 1].
// Векторы чужой длины пропускаются. Если суммарный вес нулевой, возвращается
// нулевой вектор и ErrInsufficientData.
func (a *Aggregator) Aggregate(ratings []RatedVector) (AggregateResult, error) {
	res := AggregateResult{Vector: make(domain.TasteVector, a.k)}

	var total float64
	for _, r := range ratings {
		if len(r.TasteVector) != a.k {
			res.Skipped++
			continue
		}
		w, ok := a.Weight(r)
		if !ok {
			continue
		}
		res.Eligible++
		if w == 0 {
			continue
		}
		for i, v := range r.TasteVector {
			res.Vector[i] += w * v
		}
		total += math.Abs(w)
	}

	if total == 0 {
		return AggregateResult{Vector: make(domain.TasteVector, a.k), Eligible: res.Eligible, Skipped: res.Skipped}, e.ErrInsufficientData
	}

	for i := range res.Vector {
		res.Vector[i] = Clamp(res.Vector[i]/total, -1, 1)
	}

	return res, nil
}
