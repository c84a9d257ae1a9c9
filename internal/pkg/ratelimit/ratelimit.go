package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether an operation identified by a bucket and key may
// proceed within the configured window.
type Limiter interface {
	// Allow reports whether the caller is still within the limit. The first
	// hit in a window starts the window clock.
	Allow(ctx context.Context, bucket, key string, limit int64, window time.Duration) (bool, error)
}

// RedisFixedWindow implements Limiter with a per-window counter.
//
// The counter lives at "ratelimit:<bucket>:<key>" and expires with the
// window, so idle keys clean themselves up.
type RedisFixedWindow struct {
	client redis.UniversalClient
}

// NewRedisFixedWindow constructs a Redis-backed fixed-window limiter.
func NewRedisFixedWindow(client redis.UniversalClient) *RedisFixedWindow {
	return &RedisFixedWindow{client: client}
}

// Allow increments the window counter and compares it against limit.
func (r *RedisFixedWindow) Allow(ctx context.Context, bucket, key string, limit int64, window time.Duration) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s:%s", bucket, key)

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("increment rate limit counter: %w", err)
	}

	// Only the hit that created the key sets the expiry, so the window is
	// anchored at the first request.
	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, fmt.Errorf("set rate limit window: %w", err)
		}
	}

	return count <= limit, nil
}
