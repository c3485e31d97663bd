package cache

import (
	"context"
	"sync"
	"time"

	"github.com/shopbridge/backend/internal/domain/migration"
)

// InMemoryCatalogCache caches the attribute set and category tree in process
// memory. Suitable for single-instance deployments and testing.
type InMemoryCatalogCache struct {
	inner Source
	ttl   time.Duration

	mu           sync.RWMutex
	defs         []migration.AttributeDef
	defsExpiry   time.Time
	forest       []migration.CategoryNode
	forestExpiry time.Time
}

// NewInMemoryCatalogCache creates an in-memory catalog cache over the source.
func NewInMemoryCatalogCache(inner Source, ttl time.Duration) *InMemoryCatalogCache {
	return &InMemoryCatalogCache{inner: inner, ttl: ttl}
}

// FetchAttributeCatalog returns the cached attribute set, refreshing it from
// the source once the TTL has elapsed.
func (c *InMemoryCatalogCache) FetchAttributeCatalog(ctx context.Context) ([]migration.AttributeDef, error) {
	c.mu.RLock()
	if c.defs != nil && time.Now().Before(c.defsExpiry) {
		defs := c.defs
		c.mu.RUnlock()
		return defs, nil
	}
	c.mu.RUnlock()

	defs, err := c.inner.FetchAttributeCatalog(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.defs = defs
	c.defsExpiry = time.Now().Add(c.ttl)
	c.mu.Unlock()
	return defs, nil
}

// FetchCategoryForest returns the cached category tree, refreshing it from
// the source once the TTL has elapsed.
func (c *InMemoryCatalogCache) FetchCategoryForest(ctx context.Context) ([]migration.CategoryNode, error) {
	c.mu.RLock()
	if c.forest != nil && time.Now().Before(c.forestExpiry) {
		forest := c.forest
		c.mu.RUnlock()
		return forest, nil
	}
	c.mu.RUnlock()

	nodes, err := c.inner.FetchCategoryForest(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.forest = nodes
	c.forestExpiry = time.Now().Add(c.ttl)
	c.mu.Unlock()
	return nodes, nil
}

// Invalidate drops both cached structures so the next read hits the source.
func (c *InMemoryCatalogCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	c.defs = nil
	c.forest = nil
	c.mu.Unlock()
	return nil
}
