package services

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/tradejournal/backend/src/models"
)

// StatsCache holds computed aggregates between ledger writes. Every committed
// write bumps the generation, and a result computed under an older generation
// is never stored.
type StatsCache struct {
	mu    sync.Mutex
	items *cache.Cache
	gen   uint64
}

func NewStatsCache(ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StatsCache{items: cache.New(ttl, 2*ttl)}
}

// Generation is read before computing a result that will be passed to Store.
func (c *StatsCache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *StatsCache) Get(key string) (*models.TradeStats, bool) {
	if c == nil {
		return nil, false
	}
	v, found := c.items.Get(key)
	if !found {
		return nil, false
	}
	return v.(*models.TradeStats), true
}

// Store caches stats unless a write has been committed since gen was read.
func (c *StatsCache) Store(key string, stats *models.TradeStats, gen uint64) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.items.Set(key, stats, cache.DefaultExpiration)
	return true
}

// Invalidate drops everything cached and retires the current generation.
func (c *StatsCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.items.Flush()
}

func (c *StatsCache) ItemCount() int {
	if c == nil {
		return 0
	}
	return c.items.ItemCount()
}
