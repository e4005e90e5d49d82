package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/internal/metrics"
	"github.com/DRSN-tech/spectra-backend/internal/taste"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
	"github.com/google/uuid"
)

// CatalogUseCase реализует загрузку каталога и управление оценками пользователей.
type CatalogUseCase struct {
	embedder   EmbeddingInfra
	projector  *taste.Projector
	itemRepo   ItemRepository
	itemIndex  ItemIndex
	ratingRepo RatingRepository
	outboxRepo OutboxRepository
	cacheRepo  CacheRepository
	encoder    EventEncoder
	txManager  TxManager
	items      *itemInfoLoader
	logger     logger.Logger
}

func NewCatalogUC(
	embedder EmbeddingInfra,
	projector *taste.Projector,
	itemRepo ItemRepository,
	itemIndex ItemIndex,
	ratingRepo RatingRepository,
	outboxRepo OutboxRepository,
	cacheRepo CacheRepository,
	encoder EventEncoder,
	txManager TxManager,
	logger logger.Logger,
) *CatalogUseCase {
	return &CatalogUseCase{
		embedder:   embedder,
		projector:  projector,
		itemRepo:   itemRepo,
		itemIndex:  itemIndex,
		ratingRepo: ratingRepo,
		outboxRepo: outboxRepo,
		cacheRepo:  cacheRepo,
		encoder:    encoder,
		txManager:  txManager,
		items:      &itemInfoLoader{itemRepo: itemRepo, cacheRepo: cacheRepo, logger: logger},
		logger:     logger,
	}
}

// IngestItems эмбеддит описания элементов, проецирует их на измерения вкуса и сохраняет
// метаданные в БД, а оба вектора в векторное хранилище. Повторная загрузка заменяет элемент.
func (c *CatalogUseCase) IngestItems(ctx context.Context, reqs []IngestItemReq) (*IngestItemsRes, error) {
	const op = "CatalogUseCase.IngestItems"

	// Валидация данных
	if err := c.validateItems(reqs); err != nil {
		return nil, e.Wrap(op, err)
	}

	// Отправка описаний на ML Service для получения эмбеддингов
	texts := make([]string, len(reqs))
	for i, req := range reqs {
		texts[i] = itemText(req)
	}
	embeddings, err := c.embedder.Embed(ctx, texts)
	metrics.RecordEmbedding(err)
	if err != nil {
		return nil, e.Wrap(op, e.Mark(e.ErrEmbeddingProvider, err))
	}
	if len(embeddings) != len(reqs) {
		return nil, e.Wrap(op, e.Mark(e.ErrEmbeddingProvider, e.ErrEmptyVectors))
	}

	items := make([]*domain.Item, len(reqs))
	for i, req := range reqs {
		vector, _, err := c.projector.Project(embeddings[i])
		if err != nil {
			return nil, e.Wrap(op, e.Mark(e.ErrEmbeddingProvider, err))
		}
		items[i] = NewItem(req, embeddings[i], vector)
	}

	// Метаданные и оба вектора сохраняются атомарно: ошибка векторного хранилища откатывает БД
	err = c.txManager.Do(ctx, func(ctx context.Context) error {
		points := make([]domain.ItemPoint, 0, len(items))
		for _, item := range items {
			if _, err := c.itemRepo.Upsert(ctx, item); err != nil {
				return err
			}
			points = append(points, *domain.NewItemPoint(item))
		}
		return c.itemIndex.Upsert(ctx, points)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	ids := make([]string, len(items))
	res := &IngestItemsRes{Items: make([]IngestedItem, len(items))}
	for i, item := range items {
		ids[i] = item.ID
		res.Items[i] = IngestedItem{ID: item.ID, TasteVector: item.TasteVector}
		metrics.ItemsIngestedTotal.WithLabelValues(string(item.MediaType)).Inc()
	}

	// Удаление из кэша старых данных элементов
	if err := c.cacheRepo.DeleteItems(ctx, ids); err != nil {
		c.logger.Warnf("Failed to delete items from cache: %v", e.Wrap(op, err))
	}

	// Профили пользователей, оценивших элементы, посчитаны по прежним векторам вкуса
	users, err := c.ratingRepo.ListUserIDsByItems(ctx, ids)
	if err != nil {
		c.logger.Warnf("Failed to list users who rated re-ingested items: %v", e.Wrap(op, err))
	}
	for _, userID := range users {
		c.invalidateProfile(ctx, userID)
	}

	c.logger.Infof("Ingested %d catalog items", len(items))
	return res, nil
}

// UpsertRating создаёт или обновляет оценку и пишет событие в outbox в той же транзакции.
func (c *CatalogUseCase) UpsertRating(ctx context.Context, req *UpsertRatingReq) (*domain.Rating, error) {
	const op = "CatalogUseCase.UpsertRating"

	if err := c.validateRating(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	if _, err := c.itemRepo.GetByID(ctx, req.ItemID); err != nil {
		return nil, e.Wrap(op, err)
	}

	var saved *domain.Rating
	err := c.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		saved, err = c.ratingRepo.Upsert(ctx, domain.NewRating(req.UserID, req.ItemID, req.Value, req.Favorite, req.WantToConsume, req.Notes))
		if err != nil {
			return err
		}

		return c.writeEvent(ctx, &RatingEvent{
			EventType: RatingChanged,
			UserID:    req.UserID,
			ItemID:    req.ItemID,
			Value:     req.Value,
			Favorite:  req.Favorite,
			Want:      req.WantToConsume,
		})
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.invalidateProfile(ctx, req.UserID)
	return saved, nil
}

// DeleteRating удаляет оценку пользователя.
func (c *CatalogUseCase) DeleteRating(ctx context.Context, userID, itemID string) error {
	const op = "CatalogUseCase.DeleteRating"

	if err := validateUserID(userID); err != nil {
		return e.Wrap(op, err)
	}

	err := c.txManager.Do(ctx, func(ctx context.Context) error {
		deleted, err := c.ratingRepo.Delete(ctx, userID, itemID)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("%w: user %s, item %s", e.ErrRatingNotFound, userID, itemID)
		}

		return c.writeEvent(ctx, &RatingEvent{EventType: RatingDeleted, UserID: userID, ItemID: itemID})
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	c.invalidateProfile(ctx, userID)
	return nil
}

// ListRatings возвращает оценки пользователя с метаданными элементов.
func (c *CatalogUseCase) ListRatings(ctx context.Context, userID string) ([]UserRating, error) {
	const op = "CatalogUseCase.ListRatings"

	if err := validateUserID(userID); err != nil {
		return nil, e.Wrap(op, err)
	}

	ratings, err := c.ratingRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	ids := make([]string, len(ratings))
	for i, r := range ratings {
		ids[i] = r.ItemID
	}
	infos, err := c.items.load(ctx, ids)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	result := make([]UserRating, len(ratings))
	for i, r := range ratings {
		result[i] = UserRating{Rating: r}
		if info, ok := infos[r.ItemID]; ok {
			result[i].Item = &info
		}
	}

	return result, nil
}

// DeleteUserRatings удаляет все оценки пользователя (удаление пользователя).
func (c *CatalogUseCase) DeleteUserRatings(ctx context.Context, userID string) (int64, error) {
	const op = "CatalogUseCase.DeleteUserRatings"

	if err := validateUserID(userID); err != nil {
		return 0, e.Wrap(op, err)
	}

	var deleted int64
	err := c.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = c.ratingRepo.DeleteByUser(ctx, userID)
		if err != nil {
			return err
		}

		return c.writeEvent(ctx, &RatingEvent{EventType: UserPurged, UserID: userID})
	})
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	c.invalidateProfile(ctx, userID)
	return deleted, nil
}

// writeEvent сериализует событие и сохраняет его в outbox текущей транзакции.
func (c *CatalogUseCase) writeEvent(ctx context.Context, event *RatingEvent) error {
	event.EventID = uuid.NewString()
	event.Timestamp = time.Now().UTC()

	payload, err := c.encoder.EncodeRatingEvent(event)
	if err != nil {
		return err
	}

	_, err = c.outboxRepo.Create(ctx, NewOutboxEvent(event.EventID, event.EventType, event.UserID, payload))
	return err
}

// invalidateProfile удаляет закэшированный профиль и сдвигает его поколение,
// чтобы запоздавшая фоновая запись старого профиля не попала в кэш.
func (c *CatalogUseCase) invalidateProfile(ctx context.Context, userID string) {
	if err := c.cacheRepo.DeleteProfile(ctx, userID); err != nil {
		c.logger.Warnf("Failed to invalidate taste profile, user_id: %s, error: %v", userID, err)
	}
}

// validateItems проверяет корректность элементов каталога перед загрузкой.
func (c *CatalogUseCase) validateItems(reqs []IngestItemReq) error {
	if len(reqs) == 0 {
		return e.ErrNoItems
	}

	seen := make(map[string]struct{}, len(reqs))
	for _, req := range reqs {
		if strings.TrimSpace(req.ID) == "" {
			return e.Mark(e.ErrStatusBadRequest, fmt.Errorf("item id is required"))
		}
		if _, ok := seen[req.ID]; ok {
			return e.Mark(e.ErrStatusBadRequest, fmt.Errorf("duplicate item id %q", req.ID))
		}
		seen[req.ID] = struct{}{}

		if strings.TrimSpace(req.Title) == "" {
			return e.Wrap(req.ID, e.ErrItemTitleRequired)
		}
		if !req.MediaType.Valid() {
			return e.Wrap(string(req.MediaType), e.ErrInvalidMediaType)
		}
	}

	return nil
}

// validateRating проверяет корректность входных данных оценки.
func (c *CatalogUseCase) validateRating(req *UpsertRatingReq) error {
	if err := validateUserID(req.UserID); err != nil {
		return err
	}
	if strings.TrimSpace(req.ItemID) == "" {
		return e.Mark(e.ErrStatusBadRequest, fmt.Errorf("item id is required"))
	}
	if req.Value != nil {
		if err := domain.ValidateRatingValue(*req.Value); err != nil {
			return err
		}
	}

	return nil
}

// Текст, по которому строится эмбеддинг элемента.
func itemText(req IngestItemReq) string {
	if strings.TrimSpace(req.Description) == "" {
		return req.Title
	}
	return req.Title + ". " + req.Description
}
