package taste

import (
	"context"
	"fmt"
	"math"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
)

// Порог |cos| между направлениями, о котором пишем в лог при старте.
const correlationWarnThreshold = 0.5

// Допуск отклонения нормы вектора из снапшота от единицы.
const unitTolerance = 1e-6

// Snapshot — сохранённый базис: ключ, размерности и направления в порядке измерений.
type Snapshot struct {
	Key           string      `json:"key"`
	Model         string      `json:"model"`
	DimensionIDs  []string    `json:"dimension_ids"`
	EmbeddingSize int         `json:"embedding_size"`
	Vectors       [][]float64 `json:"vectors"`
}

// SnapshotStore хранит снапшоты базиса. Load возвращает nil, nil, если снапшота нет.
type SnapshotStore interface {
	Load(ctx context.Context, key string) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
}

// NewSnapshot собирает снапшот из базиса.
func NewSnapshot(b *Basis, key, model string) *Snapshot {
	ids := make([]string, b.Len())
	for i, d := range b.dims {
		ids[i] = d.ID
	}
	return &Snapshot{
		Key:           key,
		Model:         model,
		DimensionIDs:  ids,
		EmbeddingSize: b.EmbeddingSize(),
		Vectors:       b.Vectors(),
	}
}

// validate проверяет, что снапшот подходит к текущим определениям.
func (s *Snapshot) validate(key string, defs []domain.DimensionDefinition) error {
	if s.Key != key {
		return fmt.Errorf("snapshot key mismatch")
	}
	if len(s.DimensionIDs) != len(defs) || len(s.Vectors) != len(defs) {
		return fmt.Errorf("snapshot has %d dimensions, want %d", len(s.Vectors), len(defs))
	}
	for i, d := range defs {
		if s.DimensionIDs[i] != d.ID {
			return fmt.Errorf("snapshot dimension #%d is %q, want %q", i, s.DimensionIDs[i], d.ID)
		}
		if len(s.Vectors[i]) != s.EmbeddingSize || s.EmbeddingSize == 0 {
			return e.ErrDimensionMismatch
		}
		if math.Abs(Norm(s.Vectors[i])-1) > unitTolerance {
			return fmt.Errorf("snapshot vector %q is not unit length", d.ID)
		}
	}
	return nil
}

// LoadBasis возвращает базис из снапшота, если он валиден, иначе строит его через embedder
// и сохраняет новый снапшот. Ошибки хранилища снапшотов не прерывают запуск.
func LoadBasis(
	ctx context.Context,
	defs []domain.DimensionDefinition,
	embedder Embedder,
	store SnapshotStore,
	model string,
	opts BasisOptions,
	log logger.Logger,
) (*Basis, error) {
	const op = "taste.LoadBasis"

	if err := ValidateDefinitions(defs); err != nil {
		return nil, e.Wrap(op, err)
	}
	key := Fingerprint(defs, model, opts)

	if store != nil {
		snap, err := store.Load(ctx, key)
		switch {
		case err != nil:
			log.Warnf("Failed to read basis snapshot %s: %v", key, err)
		case snap != nil:
			if vErr := snap.validate(key, defs); vErr != nil {
				log.Warnf("Basis snapshot %s rejected: %v", key, vErr)
				break
			}
			// Ортогонализация уже применена при построении снапшота.
			b, bErr := NewBasisFromVectors(defs, snap.Vectors, BasisOptions{})
			if bErr == nil {
				log.Infof("Taste basis loaded from snapshot %s (K=%d, D=%d)", key, b.Len(), b.EmbeddingSize())
				logCorrelations(b, log)
				return b, nil
			}
			log.Warnf("Failed to build basis from snapshot %s: %v", key, bErr)
		}
	}

	b, err := NewBasis(ctx, defs, embedder, opts)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	log.Infof("Taste basis built (K=%d, D=%d, orthogonalize=%t)", b.Len(), b.EmbeddingSize(), opts.Orthogonalize)
	logCorrelations(b, log)

	if store != nil {
		if err := store.Save(ctx, NewSnapshot(b, key, model)); err != nil {
			log.Warnf("Failed to save basis snapshot %s: %v", key, err)
		}
	}

	return b, nil
}

func logCorrelations(b *Basis, log logger.Logger) {
	for _, p := range b.Correlations(correlationWarnThreshold) {
		log.Warnf("Dimensions %s and %s are correlated: cos=%.3f", p.A, p.B, p.Cosine)
	}
}
