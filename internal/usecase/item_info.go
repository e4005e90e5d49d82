package usecase

import (
	"context"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
)

// itemInfoLoader читает метаданные элементов через кэш с догрузкой из БД.
type itemInfoLoader struct {
	itemRepo  ItemRepository
	cacheRepo CacheRepository
	logger    logger.Logger
}

// load возвращает метаданные найденных элементов. Отсутствующие id просто не попадают в результат.
func (l *itemInfoLoader) load(ctx context.Context, ids []string) (map[string]domain.ItemInfo, error) {
	const op = "itemInfoLoader.load"

	result := make(map[string]domain.ItemInfo, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	// Поиск элементов в кэше
	cached, err := l.cacheRepo.GetItems(ctx, ids)
	if err != nil {
		l.logger.Warnf("Failed to read items from cache: %v", e.Wrap(op, err))
	}

	var nonCacheable []string
	for _, id := range ids {
		if info, ok := cached[id]; ok {
			result[id] = info
		} else {
			nonCacheable = append(nonCacheable, id)
		}
	}
	if len(nonCacheable) == 0 {
		return result, nil
	}

	// Получение элементов из БД
	fromDB, err := l.itemRepo.GetItemsInfo(ctx, nonCacheable)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	for _, info := range fromDB {
		result[info.ID] = info
	}

	if len(fromDB) > 0 {
		// Фоновое добавление элементов в кэш
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
			defer cancel()

			if err := l.cacheRepo.SetItems(bgCtx, fromDB); err != nil {
				l.logger.Warnf("Failed to cache items in background: %v", e.Wrap(op, err))
			}
		}()
	}

	return result, nil
}
