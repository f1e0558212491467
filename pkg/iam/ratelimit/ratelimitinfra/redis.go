package ratelimitinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/idforge/idforge/pkg/config"
	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam/ratelimit"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter limiter. INCR and the expiry run in
// one pipeline so the window key cannot leak without a TTL.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) ratelimit.Limiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func NewRedisLimiterFromConfig(client *redis.Client, cfg *config.RateLimitConfig) ratelimit.Limiter {
	return NewRedisLimiter(client, cfg.Limit, cfg.Window)
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	window := time.Now().Unix() / int64(l.window.Seconds())
	bucket := fmt.Sprintf("ratelimit:%s:%d", key, window)

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, bucket)
	pipe.Expire(ctx, bucket, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, errx.Wrap(err, "rate limiter unavailable", errx.TypeExternal)
	}

	return count.Val() <= int64(l.limit), nil
}
