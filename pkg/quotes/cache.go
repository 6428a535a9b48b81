package quotes

import (
	"context"
	"sync"
	"time"

	"github.com/goalfolio/goalfolio/pkg/metrics"
)

// CachedProvider caches snapshots per symbol for a TTL in process memory.
// Failed fetches are never cached.
type CachedProvider struct {
	P        Provider
	TTL      time.Duration
	MaxItems int

	mu    sync.RWMutex
	items map[string]cacheEntry
}

type cacheEntry struct {
	expiresAt time.Time
	snap      Snapshot
}

func (c *CachedProvider) Name() string { return c.P.Name() }

func (c *CachedProvider) FetchSnapshot(ctx context.Context, symbol string) (Snapshot, error) {
	if c.TTL <= 0 {
		return c.P.FetchSnapshot(ctx, symbol)
	}

	now := time.Now()
	c.mu.RLock()
	e, ok := c.items[symbol]
	c.mu.RUnlock()
	if ok && now.Before(e.expiresAt) {
		metrics.QuoteCacheHits.Inc()
		return e.snap, nil
	}
	metrics.QuoteCacheMisses.Inc()

	snap, err := c.P.FetchSnapshot(ctx, symbol)
	if err != nil {
		return Snapshot{}, err
	}

	c.mu.Lock()
	if c.items == nil {
		c.items = make(map[string]cacheEntry)
	}
	c.items[symbol] = cacheEntry{expiresAt: now.Add(c.TTL), snap: snap}
	// best-effort size cap: evict expired first, then arbitrary keys
	if c.MaxItems > 0 && len(c.items) > c.MaxItems {
		for k, v := range c.items {
			if now.After(v.expiresAt) {
				delete(c.items, k)
			}
			if len(c.items) <= c.MaxItems {
				break
			}
		}
		for k := range c.items {
			if len(c.items) <= c.MaxItems {
				break
			}
			delete(c.items, k)
		}
	}
	c.mu.Unlock()

	return snap, nil
}
