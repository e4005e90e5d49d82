package usecase

import (
	"context"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
)

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type ItemRepository interface {
	Upsert(ctx context.Context, item *domain.Item) (*domain.Item, error)
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	GetItemsInfo(ctx context.Context, ids []string) ([]domain.ItemInfo, error)
}

// ItemIndex — векторное хранилище каталога (оба вектора элемента).
type ItemIndex interface {
	Upsert(ctx context.Context, points []domain.ItemPoint) error
	GetPoints(ctx context.Context, itemIDs []string) ([]domain.ItemPoint, error)
}

type RatingRepository interface {
	Upsert(ctx context.Context, rating *domain.Rating) (*domain.Rating, error)
	Delete(ctx context.Context, userID, itemID string) (bool, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Rating, error)
	// ListRatedItems возвращает оценки пользователя вместе с векторами вкуса элементов.
	ListRatedItems(ctx context.Context, userID string) ([]domain.RatedItem, error)
	ListUserIDsByItems(ctx context.Context, itemIDs []string) ([]string, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}

// CacheRepository — кэш метаданных элементов и вычисленных профилей.
// Промахи не являются ошибками.
//
// У профиля пользователя есть поколение: DeleteProfile увеличивает его, а SetProfile
// записывает профиль, только если поколение не изменилось с момента чтения оценок.
type CacheRepository interface {
	GetItems(ctx context.Context, ids []string) (map[string]domain.ItemInfo, error)
	SetItems(ctx context.Context, items []domain.ItemInfo) error
	DeleteItems(ctx context.Context, ids []string) error
	GetProfile(ctx context.Context, userID string) (*domain.TasteProfile, error)
	ProfileGeneration(ctx context.Context, userID string) (int64, error)
	SetProfile(ctx context.Context, profile *domain.TasteProfile, generation int64) error
	DeleteProfile(ctx context.Context, userID string) error
}
