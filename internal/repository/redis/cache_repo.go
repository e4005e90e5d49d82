package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/DRSN-tech/spectra-backend/internal/cfg"
	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/spectra-backend/pkg/clients"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
	"github.com/goccy/go-json"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

const (
	itemKeyPrefix       = "item:"
	profileKeyPrefix    = "taste_profile:"
	profileGenKeyPrefix = "taste_profile_gen:"
)

// setProfileScript пишет профиль, только если поколение пользователя не сдвинулось.
// KEYS[1] поколение, KEYS[2] профиль; ARGV: ожидаемое поколение, данные, TTL в мс.
var setProfileScript = r.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
if gen ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// CacheRepo кэширует метаданные элементов и вычисленные вкусовые профили.
// Ошибки записи только логируются: кэш не влияет на корректность ответа.
type CacheRepo struct {
	client      *clients.RedisClient
	itemConv    converter.ItemInfoConverter
	profileConv converter.TasteProfileConverter
	cfg         *cfg.RedisCfg
	logger      logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// GetItems возвращает закэшированные элементы по id. Промахи и битые записи пропускаются.
func (c *CacheRepo) GetItems(ctx context.Context, ids []string) (map[string]domain.ItemInfo, error) {
	if len(ids) == 0 {
		return map[string]domain.ItemInfo{}, nil
	}

	keys := itemKeys(ids)
	values, err := c.client.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result := make(map[string]domain.ItemInfo, len(values))
	for i, val := range values {
		data, err := redisValueToBytes(val, keys[i])
		if err != nil {
			c.logger.Warnf("%v", e.Wrap(whereami.WhereAmI(), err))
		}
		if data == nil {
			continue // cache miss
		}

		var model converter.ItemInfoRedisModel
		if err := json.Unmarshal(data, &model); err != nil {
			c.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
			continue
		}

		if model.ID != ids[i] {
			c.logger.Warnf("Cache ID mismatch: key_id: %s, model_id: %s", ids[i], model.ID)
			if err := c.client.Client.Del(ctx, keys[i]).Err(); err != nil {
				c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
			}
			continue
		}
		result[ids[i]] = *c.itemConv.ToEntity(&model)
	}

	return result, nil
}

// SetItems кэширует элементы одним pipeline с TTL ITEM_TTL.
func (c *CacheRepo) SetItems(ctx context.Context, items []domain.ItemInfo) error {
	if len(items) == 0 {
		return nil
	}

	pipeline := c.client.Client.Pipeline()
	for i := range items {
		data, err := json.Marshal(c.itemConv.ToRedisModel(&items[i]))
		if err != nil {
			c.logger.Warnf("Failed to marshal item for caching (item_id: %s): %v", items[i].ID, err)
			continue
		}
		pipeline.Set(ctx, itemKey(items[i].ID), data, c.cfg.ItemTTL)
	}

	if _, err := pipeline.Exec(ctx); err != nil {
		c.logger.Warnf("Cache pipeline failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

func (c *CacheRepo) DeleteItems(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := c.client.Client.Del(ctx, itemKeys(ids)...).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// GetProfile возвращает закэшированный профиль или nil при промахе.
func (c *CacheRepo) GetProfile(ctx context.Context, userID string) (*domain.TasteProfile, error) {
	data, err := c.client.Client.Get(ctx, profileKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, nil
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.TasteProfileRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		c.logger.Warnf("Redis unmarshal failed for profile %s: %v", userID, err)
		return nil, nil
	}

	return c.profileConv.ToEntity(&model), nil
}

// ProfileGeneration возвращает текущее поколение профиля; 0, если инвалидаций не было.
func (c *CacheRepo) ProfileGeneration(ctx context.Context, userID string) (int64, error) {
	gen, err := c.client.Client.Get(ctx, profileGenKey(userID)).Int64()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return 0, nil
		}
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return gen, nil
}

// SetProfile кэширует профиль, если с момента чтения generation профиль не инвалидировали.
func (c *CacheRepo) SetProfile(ctx context.Context, profile *domain.TasteProfile, generation int64) error {
	data, err := json.Marshal(c.profileConv.ToRedisModel(profile))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	keys := []string{profileGenKey(profile.UserID), profileKey(profile.UserID)}
	written, err := setProfileScript.Run(ctx, c.client.Client, keys,
		strconv.FormatInt(generation, 10), data, c.cfg.ProfileTTL.Milliseconds()).Int()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if written == 0 {
		c.logger.Debugf("Skipped caching outdated taste profile, user_id: %s", profile.UserID)
	}

	return nil
}

// DeleteProfile удаляет профиль и сдвигает поколение в одной транзакции.
func (c *CacheRepo) DeleteProfile(ctx context.Context, userID string) error {
	_, err := c.client.Client.TxPipelined(ctx, func(pipe r.Pipeliner) error {
		pipe.Incr(ctx, profileGenKey(userID))
		pipe.Del(ctx, profileKey(userID))
		return nil
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func itemKeys(ids []string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = itemKey(id)
	}

	return keys
}

func itemKey(id string) string {
	return itemKeyPrefix + id
}

func profileKey(userID string) string {
	return profileKeyPrefix + userID
}

func profileGenKey(userID string) string {
	return profileGenKeyPrefix + userID
}

// redisValueToBytes конвертирует значение из MGET в []byte.
func redisValueToBytes(val any, key string) ([]byte, error) {
	switch v := val.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case nil:
		return nil, nil // cache miss
	default:
		return nil, fmt.Errorf("unexpected Redis value type for key %s: %T", key, val)
	}
}
