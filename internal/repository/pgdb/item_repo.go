package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// ItemRepo реализует репозиторий элементов каталога поверх PostgreSQL.
// Таблица media_items — источник истины для метаданных и обоих векторов.
type ItemRepo struct {
	pool *pgxpool.Pool
	conv converter.ItemConverter
}

func NewItemRepo(pool *pgxpool.Pool) *ItemRepo {
	return &ItemRepo{pool: pool}
}

// Upsert создаёт элемент или полностью заменяет его при повторной загрузке.
func (r *ItemRepo) Upsert(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	model := r.conv.ToModel(item)
	query := `
		INSERT INTO media_items (id, title, media_type, year, description, metadata, embedding, taste_vector)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id)
		DO UPDATE SET
			title = EXCLUDED.title,
			media_type = EXCLUDED.media_type,
			year = EXCLUDED.year,
			description = EXCLUDED.description,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			taste_vector = EXCLUDED.taste_vector,
			updated_at = NOW()
		RETURNING created_at, updated_at;
	`

	err := tr.Conn(ctx, r.pool).QueryRow(ctx, query,
		model.ID,
		model.Title,
		model.MediaType,
		model.Year,
		model.Description,
		model.Metadata,
		model.Embedding,
		model.TasteVector,
	).Scan(&model.CreatedAt, &model.UpdatedAt)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return r.conv.ToEntity(model), nil
}

func (r *ItemRepo) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	query := `
		SELECT id, title, media_type, year, description, metadata, embedding, taste_vector, created_at, updated_at
		FROM media_items
		WHERE id = $1
	`

	var model converter.ItemModel
	err := tr.Conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&model.ID, &model.Title, &model.MediaType, &model.Year, &model.Description,
		&model.Metadata, &model.Embedding, &model.TasteVector, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(id, e.ErrItemNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return r.conv.ToEntity(&model), nil
}

// GetItemsInfo возвращает метаданные элементов без векторов. Неизвестные id пропускаются.
func (r *ItemRepo) GetItemsInfo(ctx context.Context, ids []string) ([]domain.ItemInfo, error) {
	query := `
		SELECT id, title, media_type, year, description, metadata
		FROM media_items
		WHERE id = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.ItemInfo, 0, len(ids))
	for rows.Next() {
		var model converter.ItemModel
		if err := rows.Scan(&model.ID, &model.Title, &model.MediaType, &model.Year, &model.Description, &model.Metadata); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, r.conv.ToEntity(&model).Info())
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}
