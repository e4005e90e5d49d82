package taste

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"gopkg.in/yaml.v3"
)

//go:embed dimensions.yaml
var defaultDimensionsYAML []byte

// Минимальное число измерений, при котором базис имеет смысл.
const minDimensions = 2

// Embedder — поставщик эмбеддингов текста. Все векторы одного вызова имеют одинаковую длину D.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// BasisOptions — параметры построения базиса.
type BasisOptions struct {
	// Orthogonalize включает модифицированный Грам-Шмидт в порядке определений.
	Orthogonalize bool
}

// Basis — неизменяемый набор направляющих векторов измерений вкуса.
// Создаётся один раз при старте и передаётся по ссылке всем компонентам.
type Basis struct {
	dims []domain.DirectionVector
	size int
}

// CorrelatedPair — пара измерений с заметной корреляцией направлений.
type CorrelatedPair struct {
	A, B   string
	Cosine float64
}

type definitionsFile struct {
	Dimensions []domain.DimensionDefinition `yaml:"dimensions"`
}

// DefaultDefinitions возвращает встроенные определения измерений.
func DefaultDefinitions() ([]domain.DimensionDefinition, error) {
	return LoadDefinitions(defaultDimensionsYAML)
}

// LoadDefinitions разбирает YAML с определениями измерений и проверяет их.
func LoadDefinitions(raw []byte) ([]domain.DimensionDefinition, error) {
	var f definitionsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, e.Mark(e.ErrConfiguration, e.Wrap("parse dimension definitions", err))
	}
	if err := ValidateDefinitions(f.Dimensions); err != nil {
		return nil, err
	}

	return f.Dimensions, nil
}

// ValidateDefinitions проверяет число измерений, уникальность id и заполненность полей.
func ValidateDefinitions(defs []domain.DimensionDefinition) error {
	if len(defs) < minDimensions {
		return e.Mark(e.ErrConfiguration, fmt.Errorf("need at least %d dimensions, got %d", minDimensions, len(defs)))
	}

	seen := make(map[string]struct{}, len(defs))
	for i, d := range defs {
		switch {
		case strings.TrimSpace(d.ID) == "":
			return e.Mark(e.ErrConfiguration, fmt.Errorf("dimension #%d: empty id", i))
		case strings.TrimSpace(d.Name) == "":
			return e.Mark(e.ErrConfiguration, fmt.Errorf("dimension %q: empty name", d.ID))
		case strings.TrimSpace(d.PositivePrompt) == "" || strings.TrimSpace(d.NegativePrompt) == "":
			return e.Mark(e.ErrConfiguration, fmt.Errorf("dimension %q: empty prompt", d.ID))
		}
		if _, ok := seen[d.ID]; ok {
			return e.Mark(e.ErrConfiguration, fmt.Errorf("duplicate dimension id %q", d.ID))
		}
		seen[d.ID] = struct{}{}
	}

	return nil
}

// NewBasis строит базис: для каждого измерения embed(positive) - embed(negative), затем нормировка.
// Все промпты отправляются одним вызовом в порядке [pos0, neg0, pos1, neg1, ...].
func NewBasis(ctx context.Context, defs []domain.DimensionDefinition, embedder Embedder, opts BasisOptions) (*Basis, error) {
	const op = "taste.NewBasis"

	if err := ValidateDefinitions(defs); err != nil {
		return nil, e.Wrap(op, err)
	}

	texts := make([]string, 0, 2*len(defs))
	for _, d := range defs {
		texts = append(texts, d.PositivePrompt, d.NegativePrompt)
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, e.Wrap(op, e.Mark(e.ErrConfiguration, err))
	}
	if len(vectors) != len(texts) {
		return nil, e.Wrap(op, e.Mark(e.ErrConfiguration, fmt.Errorf("embedder returned %d vectors for %d prompts", len(vectors), len(texts))))
	}

	raw := make([][]float64, len(defs))
	for i := range defs {
		pos, neg := vectors[2*i], vectors[2*i+1]
		if len(pos) == 0 || len(pos) != len(neg) || len(pos) != len(vectors[0]) {
			return nil, e.Wrap(op, e.Mark(e.ErrConfiguration, e.ErrDimensionMismatch))
		}
		raw[i] = Sub(pos, neg)
	}

	return NewBasisFromVectors(defs, raw, opts)
}

// NewBasisFromVectors собирает базис из готовых (не обязательно нормированных) направлений.
func NewBasisFromVectors(defs []domain.DimensionDefinition, vectors [][]float64, opts BasisOptions) (*Basis, error) {
	const op = "taste.NewBasisFromVectors"

	if err := ValidateDefinitions(defs); err != nil {
		return nil, e.Wrap(op, err)
	}
	if len(vectors) != len(defs) {
		return nil, e.Wrap(op, e.Mark(e.ErrConfiguration, fmt.Errorf("%d vectors for %d dimensions", len(vectors), len(defs))))
	}

	size := len(vectors[0])
	if size == 0 {
		return nil, e.Wrap(op, e.Mark(e.ErrConfiguration, e.ErrEmptyVectors))
	}

	work := make([][]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != size {
			return nil, e.Wrap(op, e.Mark(e.ErrConfiguration, e.ErrDimensionMismatch))
		}
		work[i] = append([]float64(nil), v...)
	}

	if opts.Orthogonalize {
		gramSchmidt(work)
	}

	dims := make([]domain.DirectionVector, len(defs))
	for i, v := range work {
		unit, ok := Normalize(v)
		if !ok {
			return nil, e.Wrap(op, e.Mark(e.ErrConfiguration, fmt.Errorf("dimension %q: %w", defs[i].ID, e.ErrZeroDirection)))
		}
		dims[i] = domain.DirectionVector{DimensionDefinition: defs[i], Unit: unit}
	}

	return &Basis{dims: dims, size: size}, nil
}

// gramSchmidt ортогонализирует векторы на месте (модифицированный вариант).
func gramSchmidt(vs [][]float64) {
	for i := range vs {
		for j := 0; j < i; j++ {
			n := Dot(vs[j], vs[j])
			if n == 0 {
				continue
			}
			k := Dot(vs[i], vs[j]) / n
			for c := range vs[i] {
				vs[i][c] -= k * vs[j][c]
			}
		}
	}
}

// Dimensions возвращает копию направляющих векторов в порядке определений.
func (b *Basis) Dimensions() []domain.DirectionVector {
	out := make([]domain.DirectionVector, len(b.dims))
	for i, d := range b.dims {
		out[i] = domain.DirectionVector{
			DimensionDefinition: d.DimensionDefinition,
			Unit:                append([]float64(nil), d.Unit...),
		}
	}
	return out
}

// Definitions возвращает определения измерений без векторов.
func (b *Basis) Definitions() []domain.DimensionDefinition {
	out := make([]domain.DimensionDefinition, len(b.dims))
	for i, d := range b.dims {
		out[i] = d.DimensionDefinition
	}
	return out
}

// Len — число измерений K.
func (b *Basis) Len() int { return len(b.dims) }

// EmbeddingSize — размерность пространства эмбеддингов D.
func (b *Basis) EmbeddingSize() int { return b.size }

// Vectors возвращает копию единичных векторов в порядке измерений.
func (b *Basis) Vectors() [][]float64 {
	out := make([][]float64, len(b.dims))
	for i, d := range b.dims {
		out[i] = append([]float64(nil), d.Unit...)
	}
	return out
}

// Correlations возвращает пары измерений, у которых |cos| превышает порог.
func (b *Basis) Correlations(threshold float64) []CorrelatedPair {
	var pairs []CorrelatedPair
	for i := range b.dims {
		for j := i + 1; j < len(b.dims); j++ {
			c := Dot(b.dims[i].Unit, b.dims[j].Unit)
			if math.Abs(c) > threshold {
				pairs = append(pairs, CorrelatedPair{A: b.dims[i].ID, B: b.dims[j].ID, Cosine: c})
			}
		}
	}
	return pairs
}

// Fingerprint — отпечаток определений и модели эмбеддингов, ключ снапшота базиса.
func Fingerprint(defs []domain.DimensionDefinition, model string, opts BasisOptions) string {
	h := sha256.New()
	fmt.Fprintf(h, "model=%s\northogonalize=%t\n", model, opts.Orthogonalize)
	for _, d := range defs {
		fmt.Fprintf(h, "%s\x00%s\x00%s\n", d.ID, d.PositivePrompt, d.NegativePrompt)
	}
	return hex.EncodeToString(h.Sum(nil))
}
