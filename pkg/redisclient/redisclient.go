package redisclient

import (
  "context"
  "errors"
  "time"

  "github.com/cenkalti/backoff/v4"
  "github.com/go-redis/redis/v8"

  "github.com/goalfolio/goalfolio/pkg/metrics"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("key not found")

type Client struct {
  rdb *redis.Client
}

// New constructs a Client from a redis:// URL with tuned pool settings.
func New(redisURL string) (*Client, error) {
  opt, err := redis.ParseURL(redisURL)
  if err != nil {
    return nil, err
  }
  opt.PoolSize = 20
  opt.MinIdleConns = 5
  opt.MaxRetries = 3
  opt.DialTimeout = 5 * time.Second
  opt.ReadTimeout = 3 * time.Second
  opt.WriteTimeout = 3 * time.Second
  opt.IdleTimeout = 5 * time.Minute
  return &Client{rdb: redis.NewClient(opt)}, nil
}

// withMetrics wraps operations with duration/error collection.
func (c *Client) withMetrics(operation string, fn func() error) error {
  start := time.Now()
  err := fn()
  duration := time.Since(start).Seconds()

  metrics.RedisOperationDuration.WithLabelValues(operation, getStatus(err)).Observe(duration)
  if err != nil && !errors.Is(err, ErrNotFound) {
    metrics.RedisErrors.WithLabelValues(operation).Inc()
  }
  return err
}

func getStatus(err error) string {
  if err != nil {
    return "error"
  }
  return "success"
}

// Get fetches a raw value. Missing keys map to ErrNotFound.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
  var out []byte
  err := c.withMetrics("get", func() error {
    ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
    defer cancel()
    b, err := c.rdb.Get(ctx, key).Bytes()
    if err == redis.Nil {
      return ErrNotFound
    }
    if err != nil {
      return err
    }
    out = b
    return nil
  })
  return out, err
}

// Set stores a value with a TTL, retrying transient failures with
// exponential backoff.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
  return c.withMetrics("set", func() error {
    op := func() error {
      ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
      defer cancel()
      return c.rdb.Set(ctx, key, value, ttl).Err()
    }
    return backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3))
  })
}

// Ping checks connectivity; used by the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
  return c.withMetrics("ping", func() error {
    ctx, cancel := context.WithTimeout(ctx, time.Second)
    defer cancel()
    return c.rdb.Ping(ctx).Err()
  })
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
  return c.rdb.Close()
}
