package memory

import (
	"context"
	"sync"

	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"
)

type CatalogCache struct {
	mu       sync.RWMutex
	products []domain.ProductServer
	ok       bool
}

var _ port.CatalogCachePort = (*CatalogCache)(nil)

func NewCatalogCache() *CatalogCache {
	return &CatalogCache{}
}

func (c *CatalogCache) Get(ctx context.Context) ([]domain.ProductServer, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ok {
		return nil, false, nil
	}
	out := make([]domain.ProductServer, len(c.products))
	copy(out, c.products)
	return out, true, nil
}

func (c *CatalogCache) Set(ctx context.Context, products []domain.ProductServer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = make([]domain.ProductServer, len(products))
	copy(c.products, products)
	c.ok = true
	return nil
}

func (c *CatalogCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = nil
	c.ok = false
	return nil
}
