package cache

import (
	"context"
	"fmt"
	"time"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimitResult is the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// CheckRateLimit applies a fixed-window limit of limit requests per
// window to the given key. The first request in a window creates the
// counter with the window's TTL; subsequent requests increment it.
func (c *Cache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	redisKey := rateLimitKeyPrefix + key

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, window)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis rate limit check: %w", err)
	}

	count := incr.Val()
	retryAfter := ttl.Val()
	if retryAfter < 0 {
		retryAfter = window
	}

	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}

	result := &RateLimitResult{
		Allowed:   count <= int64(limit),
		Remaining: remaining,
		ResetAt:   time.Now().Add(retryAfter),
	}
	if !result.Allowed {
		result.RetryAfter = retryAfter
	}
	return result, nil
}
