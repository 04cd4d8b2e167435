package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"scenegen-server/internal/interfaces"
	"scenegen-server/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ interfaces.AssetCache = (*redisAssetCache)(nil)

type redisAssetCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisAssetCache creates a Redis-backed cache of stock search result pages.
func NewRedisAssetCache(client redis.Cmdable, ttl time.Duration, logger *zap.Logger) interfaces.AssetCache {
	return &redisAssetCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisAssetCache"),
	}
}

func assetCacheKey(media models.BackgroundType, query string) string {
	return fmt.Sprintf("stock_search:%s:%s", media, strings.ToLower(strings.TrimSpace(query)))
}

// Get returns the cached page. A miss is (nil, false, nil).
func (c *redisAssetCache) Get(ctx context.Context, media models.BackgroundType, query string) ([]models.Asset, bool, error) {
	key := assetCacheKey(media, query)
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		c.logger.Warn("Failed to read stock search cache", zap.String("key", key), zap.Error(err))
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var assets []models.Asset
	if err := json.Unmarshal(raw, &assets); err != nil {
		// битая запись: удаляем, чтобы не мешала следующему поиску
		c.client.Del(ctx, key)
		return nil, false, fmt.Errorf("decode cached assets %s: %w", key, err)
	}
	return assets, true, nil
}

// Set stores a page with the configured TTL.
func (c *redisAssetCache) Set(ctx context.Context, media models.BackgroundType, query string, assets []models.Asset) error {
	key := assetCacheKey(media, query)
	raw, err := json.Marshal(assets)
	if err != nil {
		return fmt.Errorf("encode assets for cache: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to write stock search cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	c.logger.Debug("Stock search cached", zap.String("key", key), zap.Int("count", len(assets)), zap.Duration("ttl", c.ttl))
	return nil
}
