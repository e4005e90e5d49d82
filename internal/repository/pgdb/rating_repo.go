package pgdb

import (
	"context"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// RatingRepo реализует репозиторий оценок поверх PostgreSQL.
type RatingRepo struct {
	pool *pgxpool.Pool
	conv converter.RatingConverter
}

func NewRatingRepo(pool *pgxpool.Pool) *RatingRepo {
	return &RatingRepo{pool: pool}
}

// Upsert создаёт оценку или обновляет существующую для пары (user_id, item_id).
func (r *RatingRepo) Upsert(ctx context.Context, rating *domain.Rating) (*domain.Rating, error) {
	model := r.conv.ToModel(rating)
	query := `
		INSERT INTO ratings (user_id, item_id, value, favorite, want_to_consume, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, item_id)
		DO UPDATE SET
			value = EXCLUDED.value,
			favorite = EXCLUDED.favorite,
			want_to_consume = EXCLUDED.want_to_consume,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING id, created_at, updated_at;
	`

	err := tr.Conn(ctx, r.pool).QueryRow(ctx, query,
		model.UserID,
		model.ItemID,
		model.Value,
		model.Favorite,
		model.WantToConsume,
		model.Notes,
	).Scan(&model.ID, &model.CreatedAt, &model.UpdatedAt)
	if err != nil {
		if postgresForeignKey(err) {
			return nil, e.Wrap(rating.ItemID, e.ErrItemNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return r.conv.ToEntity(model), nil
}

// Delete удаляет оценку и сообщает, существовала ли она.
func (r *RatingRepo) Delete(ctx context.Context, userID, itemID string) (bool, error) {
	tag, err := tr.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM ratings WHERE user_id = $1 AND item_id = $2`, userID, itemID)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *RatingRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	tag, err := tr.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM ratings WHERE user_id = $1`, userID)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return tag.RowsAffected(), nil
}

// ListByUser возвращает оценки пользователя, последние изменения первыми.
func (r *RatingRepo) ListByUser(ctx context.Context, userID string) ([]domain.Rating, error) {
	query := `
		SELECT id, user_id::text, item_id, value, favorite, want_to_consume, notes, created_at, updated_at
		FROM ratings
		WHERE user_id = $1
		ORDER BY COALESCE(updated_at, created_at) DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Rating, 0)
	for rows.Next() {
		var model converter.RatingModel
		if err := rows.Scan(
			&model.ID, &model.UserID, &model.ItemID, &model.Value, &model.Favorite,
			&model.WantToConsume, &model.Notes, &model.CreatedAt, &model.UpdatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, *r.conv.ToEntity(&model))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// ListRatedItems возвращает оценки пользователя вместе с векторами вкуса элементов.
func (r *RatingRepo) ListRatedItems(ctx context.Context, userID string) ([]domain.RatedItem, error) {
	query := `
		SELECT r.id, r.user_id::text, r.item_id, r.value, r.favorite, r.want_to_consume, r.notes,
			r.created_at, r.updated_at, mi.taste_vector
		FROM ratings r
		JOIN media_items mi ON mi.id = r.item_id
		WHERE r.user_id = $1
		ORDER BY r.id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.RatedItem, 0)
	for rows.Next() {
		var (
			model  converter.RatingModel
			vector []float64
		)
		if err := rows.Scan(
			&model.ID, &model.UserID, &model.ItemID, &model.Value, &model.Favorite,
			&model.WantToConsume, &model.Notes, &model.CreatedAt, &model.UpdatedAt, &vector,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, domain.RatedItem{Rating: *r.conv.ToEntity(&model), TasteVector: vector})
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// ListUserIDsByItems возвращает пользователей, оценивших хотя бы один из элементов.
func (r *RatingRepo) ListUserIDsByItems(ctx context.Context, itemIDs []string) ([]string, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	query := `SELECT DISTINCT user_id::text FROM ratings WHERE item_id = ANY($1)`

	rows, err := tr.Conn(ctx, r.pool).Query(ctx, query, itemIDs)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	userIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return userIDs, nil
}
