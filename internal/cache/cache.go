package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/catalog"
)

const categoriesKey = "rental:catalog:categories"

// NewRedisClient returns nil when no address is configured; callers run
// without a cache in that case.
func NewRedisClient(addr, password string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

// CategoryCache stores the category listing as JSON under a single key.
// Redis errors are logged and treated as misses.
type CategoryCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewCategoryCache(client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *CategoryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryCache{client: client, ttl: ttl, logger: logger}
}

func (c *CategoryCache) Categories(ctx context.Context) ([]catalog.Category, bool) {
	raw, err := c.client.Get(ctx, categoriesKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("category cache read", zap.Error(err))
		}
		return nil, false
	}
	var cats []catalog.Category
	if err := json.Unmarshal(raw, &cats); err != nil {
		c.logger.Warn("category cache decode", zap.Error(err))
		return nil, false
	}
	return cats, true
}

func (c *CategoryCache) StoreCategories(ctx context.Context, cats []catalog.Category) {
	raw, err := json.Marshal(cats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, categoriesKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("category cache write", zap.Error(err))
	}
}
