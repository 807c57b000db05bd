package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares budgets between instances using a fixed window counter
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store on top of an existing client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Consume increments the window counter and starts the window on first use
func (r *RedisStore) Consume(ctx context.Context, key string, cfg Config) (*RateLimitResult, error) {
	used, err := r.client.IncrBy(ctx, key, int64(cfg.PointsToConsume)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if used == int64(cfg.PointsToConsume) {
		if err := r.client.PExpire(ctx, key, cfg.Interval).Err(); err != nil {
			return nil, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	ttl, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read rate limit window: %w", err)
	}
	if ttl < 0 {
		// counter survived without an expiry
		if err := r.client.PExpire(ctx, key, cfg.Interval).Err(); err != nil {
			return nil, fmt.Errorf("failed to set rate limit window: %w", err)
		}
		ttl = cfg.Interval
	}

	remaining := cfg.Points - int(used)
	if remaining < 0 {
		remaining = 0
	}

	return &RateLimitResult{
		Allowed:   used <= int64(cfg.Points),
		Limit:     cfg.Points,
		Remaining: remaining,
		ResetAt:   time.Now().Add(ttl),
	}, nil
}
