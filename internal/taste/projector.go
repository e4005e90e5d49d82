package taste

import (
	"fmt"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
)

// DefaultTendencyThreshold — |score|, начиная с которого измерение считается выраженным.
const DefaultTendencyThreshold = 0.15

// TendencyNeutral — тенденция измерения без выраженного полюса.
const TendencyNeutral = "neutral"

// Projector проецирует эмбеддинг на базис измерений. Не имеет состояния кроме базиса.
type Projector struct {
	basis     *Basis
	threshold float64
}

func NewProjector(basis *Basis, threshold float64) *Projector {
	if threshold <= 0 {
		threshold = DefaultTendencyThreshold
	}
	return &Projector{basis: basis, threshold: threshold}
}

// Basis возвращает базис, на котором построен проектор.
func (p *Projector) Basis() *Basis { return p.basis }

// Project возвращает вектор вкуса (score_i = cos(embedding, direction_i)) и его расшифровку.
// Нулевой эмбеддинг даёт нулевой вектор; эмбеддинг чужой размерности отклоняется.
func (p *Projector) Project(embedding []float64) (domain.TasteVector, []domain.DimensionScore, error) {
	if len(embedding) != p.basis.EmbeddingSize() {
		return nil, nil, e.Mark(e.ErrInvalidQuery, fmt.Errorf("embedding has %d components, want %d: %w",
			len(embedding), p.basis.EmbeddingSize(), e.ErrDimensionMismatch))
	}

	vector := make(domain.TasteVector, p.basis.Len())
	for i, d := range p.basis.dims {
		vector[i] = Clamp(Cosine(embedding, d.Unit), -1, 1)
	}

	return vector, p.Breakdown(vector), nil
}

// Breakdown расшифровывает готовый вектор вкуса по измерениям базиса.
// Компоненты сверх K игнорируются, недостающие считаются нулевыми.
func (p *Projector) Breakdown(vector domain.TasteVector) []domain.DimensionScore {
	scores := make([]domain.DimensionScore, p.basis.Len())
	for i, d := range p.basis.dims {
		var s float64
		if i < len(vector) {
			s = vector[i]
		}
		scores[i] = domain.DimensionScore{
			DimensionID: d.ID,
			Name:        d.Name,
			Description: d.Description,
			Score:       s,
			Tendency:    p.Tendency(d.DimensionDefinition, s),
		}
	}
	return scores
}

// Tendency возвращает метку полюса, к которому тяготеет значение измерения.
func (p *Projector) Tendency(def domain.DimensionDefinition, score float64) string {
	switch {
	case score > p.threshold:
		return def.PositiveLabel
	case score < -p.threshold:
		return def.NegativeLabel
	default:
		return TendencyNeutral
	}
}
