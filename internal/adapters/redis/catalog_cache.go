package redis_adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"web-larek/internal/contextkeys"
	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"

	"github.com/redis/go-redis/v9"
)

const catalogKey = "web-larek:catalog"

// CatalogCache - общий для всех сессий кэш каталога.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ port.CatalogCachePort = (*CatalogCache)(nil)

// NewCatalogCache: ttl <= 0 означает "без истечения", до явной инвалидации.
func NewCatalogCache(client *redis.Client, ttl time.Duration) (*CatalogCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &CatalogCache{client: client, ttl: ttl}, nil
}

func (c *CatalogCache) Get(ctx context.Context) ([]domain.ProductServer, bool, error) {
	raw, err := c.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read catalog cache: %w", err)
	}

	var products []domain.ProductServer
	if err := json.Unmarshal(raw, &products); err != nil {
		// Считаем промахом: следующий Set перезапишет ключ
		contextkeys.LoggerFromContext(ctx).Warn("Discarding corrupted catalog cache", port.Fields{
			"key":   catalogKey,
			"error": err.Error(),
		})
		return nil, false, nil
	}
	return products, true, nil
}

func (c *CatalogCache) Set(ctx context.Context, products []domain.ProductServer) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := c.client.Set(ctx, catalogKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write catalog cache: %w", err)
	}
	return nil
}

func (c *CatalogCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, catalogKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	return nil
}
