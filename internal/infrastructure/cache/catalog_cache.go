package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shopbridge/backend/internal/domain/migration"
)

// Source is the upstream catalog provider wrapped by a cache. The Magento
// gateway satisfies it.
type Source interface {
	FetchAttributeCatalog(ctx context.Context) ([]migration.AttributeDef, error)
	FetchCategoryForest(ctx context.Context) ([]migration.CategoryNode, error)
}

// RedisCatalogCache caches the Magento attribute set and category tree in
// Redis with a TTL. Both structures change rarely compared to how often a
// mapping session needs them, so stale reads within the TTL are acceptable.
type RedisCatalogCache struct {
	client *redis.Client
	inner  Source
	ttl    time.Duration
	logger *zap.Logger
}

const (
	attributeCatalogKey = "catalog:attributes"
	categoryForestKey   = "catalog:categories"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisCatalogCache creates a Redis-backed catalog cache over the given
// source. It pings Redis once to verify connectivity.
func NewRedisCatalogCache(cfg RedisConfig, inner Source, ttl time.Duration, logger *zap.Logger) (*RedisCatalogCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCatalogCache{client: client, inner: inner, ttl: ttl, logger: logger}, nil
}

// NewRedisCatalogCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisCatalogCacheWithClient(client *redis.Client, inner Source, ttl time.Duration, logger *zap.Logger) *RedisCatalogCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCatalogCache{client: client, inner: inner, ttl: ttl, logger: logger}
}

// FetchAttributeCatalog returns the cached attribute set, refreshing it from
// the source on a miss.
func (c *RedisCatalogCache) FetchAttributeCatalog(ctx context.Context) ([]migration.AttributeDef, error) {
	var defs []migration.AttributeDef
	if c.readCached(ctx, attributeCatalogKey, &defs) {
		return defs, nil
	}

	defs, err := c.inner.FetchAttributeCatalog(ctx)
	if err != nil {
		return nil, err
	}
	c.writeCached(ctx, attributeCatalogKey, defs)
	return defs, nil
}

// FetchCategoryForest returns the cached category tree, refreshing it from
// the source on a miss.
func (c *RedisCatalogCache) FetchCategoryForest(ctx context.Context) ([]migration.CategoryNode, error) {
	var nodes []migration.CategoryNode
	if c.readCached(ctx, categoryForestKey, &nodes) {
		return nodes, nil
	}

	nodes, err := c.inner.FetchCategoryForest(ctx)
	if err != nil {
		return nil, err
	}
	c.writeCached(ctx, categoryForestKey, nodes)
	return nodes, nil
}

// Invalidate drops both cached structures so the next read hits the source.
// Called after option creation so new option values become visible.
func (c *RedisCatalogCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, attributeCatalogKey, categoryForestKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisCatalogCache) Close() error {
	return c.client.Close()
}

// readCached returns true when the key was present and decoded. Redis errors
// are logged and treated as a miss so a broken cache never blocks a session.
func (c *RedisCatalogCache) readCached(ctx context.Context, key string, out any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn("catalog cache entry corrupt, refetching", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *RedisCatalogCache) writeCached(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("catalog cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
