package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/goalfolio/goalfolio/pkg/logger"
	"github.com/goalfolio/goalfolio/pkg/metrics"
	"github.com/goalfolio/goalfolio/pkg/redisclient"
)

// RedisCachedProvider caches snapshots in Redis so a multi-instance
// deployment shares one quote cache. Redis being down degrades to
// pass-through fetches; it never fails a lookup.
type RedisCachedProvider struct {
	P      Provider
	Client *redisclient.Client
	TTL    time.Duration
}

func (c *RedisCachedProvider) Name() string { return c.P.Name() }

type cachedSnapshot struct {
	Price       float64   `json:"price"`
	Ret1YPct    *float64  `json:"ret_1y_pct"`
	DivYieldPct *float64  `json:"div_yield_pct"`
	At          time.Time `json:"at"`
}

func cacheKey(provider, symbol string) string {
	return "quote:" + provider + ":" + symbol
}

func (c *RedisCachedProvider) FetchSnapshot(ctx context.Context, symbol string) (Snapshot, error) {
	if c.Client == nil || c.TTL <= 0 {
		return c.P.FetchSnapshot(ctx, symbol)
	}

	key := cacheKey(c.P.Name(), symbol)
	if b, err := c.Client.Get(ctx, key); err == nil {
		var cs cachedSnapshot
		if err := json.Unmarshal(b, &cs); err == nil {
			metrics.QuoteCacheHits.Inc()
			return Snapshot(cs), nil
		}
		logger.Log.Warn("corrupt cached snapshot", zap.String("key", key))
	} else if !errors.Is(err, redisclient.ErrNotFound) {
		logger.Log.Warn("quote cache read failed", zap.String("key", key), zap.Error(err))
	}
	metrics.QuoteCacheMisses.Inc()

	snap, err := c.P.FetchSnapshot(ctx, symbol)
	if err != nil {
		return Snapshot{}, err
	}

	if b, err := json.Marshal(cachedSnapshot(snap)); err == nil {
		if err := c.Client.Set(ctx, key, b, c.TTL); err != nil {
			logger.Log.Warn("quote cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return snap, nil
}
