package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/platescore/internal/model"
)

const (
	DefaultCacheTTL = 30 * time.Minute
	maxCacheEntries = 1000
)

type cacheEntry struct {
	products  []model.FoodProduct
	fetchedAt time.Time
}

// Cached wraps a Catalog and remembers successful results for a TTL. When a
// refresh fails, a stale entry is served instead of the error. Products that
// were not found and partial results are not cached.
type Cached struct {
	next   Catalog
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewCached(next Catalog, ttl time.Duration, logger *slog.Logger) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{
		next:    next,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

var _ Catalog = (*Cached)(nil)

func (c *Cached) Search(ctx context.Context, query string, limit int) ([]model.FoodProduct, error) {
	key := fmt.Sprintf("search:%d:%s", limit, strings.ToLower(strings.TrimSpace(query)))
	return c.get(key, func() ([]model.FoodProduct, error) {
		return c.next.Search(ctx, query, limit)
	})
}

func (c *Cached) Lookup(ctx context.Context, barcode string) (*model.FoodProduct, error) {
	products, err := c.get("product:"+barcode, func() ([]model.FoodProduct, error) {
		p, err := c.next.Lookup(ctx, barcode)
		if err != nil || p == nil {
			return nil, err
		}
		return []model.FoodProduct{*p}, nil
	})
	if err != nil || len(products) == 0 {
		return nil, err
	}
	return &products[0], nil
}

func (c *Cached) get(key string, fetch func() ([]model.FoodProduct, error)) ([]model.FoodProduct, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(e.fetchedAt) < c.ttl {
		return cloneAll(e.products), nil
	}

	products, err := fetch()
	if err != nil {
		if ok {
			c.logger.Warn("serving stale catalog result", "key", key, "age", c.now().Sub(e.fetchedAt), "error", err)
			return cloneAll(e.products), nil
		}
		return products, err
	}
	if products == nil {
		return nil, nil
	}

	c.mu.Lock()
	c.evictLocked()
	c.entries[key] = cacheEntry{products: cloneAll(products), fetchedAt: c.now()}
	c.mu.Unlock()
	return products, nil
}

// evictLocked makes room for one entry: expired entries go first, then the
// oldest.
func (c *Cached) evictLocked() {
	if len(c.entries) < maxCacheEntries {
		return
	}
	now := c.now()
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if now.Sub(e.fetchedAt) >= c.ttl {
			delete(c.entries, k)
			continue
		}
		if oldestKey == "" || e.fetchedAt.Before(oldest) {
			oldestKey, oldest = k, e.fetchedAt
		}
	}
	if len(c.entries) >= maxCacheEntries {
		delete(c.entries, oldestKey)
	}
}

// Len returns the number of cached results.
func (c *Cached) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cloneAll(products []model.FoodProduct) []model.FoodProduct {
	out := make([]model.FoodProduct, len(products))
	for i, p := range products {
		out[i] = p.Clone()
	}
	return out
}
