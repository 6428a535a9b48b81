package quotes

import (
	"context"
	"sync"
	"time"
)

// TokenBucket is a small token bucket limiter.
// rate is tokens per second; capacity is the burst size.
type TokenBucket struct {
	rate     float64
	capacity float64

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
	if tokensPerSecond <= 0 {
		tokensPerSecond = 0.0000001
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{
		rate:     tokensPerSecond,
		capacity: float64(burst),
		tokens:   float64(burst), // start full to allow an initial burst
		last:     time.Now(),
	}
}

// wait blocks until one token is available or ctx is canceled.
func (tb *TokenBucket) wait(ctx context.Context) error {
	for {
		tb.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(tb.last).Seconds()
		if elapsed > 0 {
			tb.tokens += elapsed * tb.rate
			if tb.tokens > tb.capacity {
				tb.tokens = tb.capacity
			}
			tb.last = now
		}
		if tb.tokens >= 1 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}
		deficit := 1 - tb.tokens
		tb.mu.Unlock()

		waitDur := time.Duration(deficit / tb.rate * float64(time.Second))
		if waitDur <= 0 {
			waitDur = time.Millisecond
		}
		timer := time.NewTimer(waitDur)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RateLimitedProvider gates upstream calls through a token bucket.
type RateLimitedProvider struct {
	P  Provider
	TB *TokenBucket
}

func (r *RateLimitedProvider) Name() string { return r.P.Name() }

func (r *RateLimitedProvider) FetchSnapshot(ctx context.Context, symbol string) (Snapshot, error) {
	if r.TB != nil {
		if err := r.TB.wait(ctx); err != nil {
			return Snapshot{}, err
		}
	}
	return r.P.FetchSnapshot(ctx, symbol)
}
