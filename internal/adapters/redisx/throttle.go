// Package redisx provides the Redis-backed login throttle and client setup.
package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agrimanage/farmreg/config"
)

// Connect opens and pings a Redis client, or returns nil when Redis is
// disabled in configuration.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Throttle counts failed login attempts per identifier in a rolling window.
// It implements core.LoginThrottle.
type Throttle struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

func NewThrottle(client *redis.Client, maxAttempts int, window time.Duration) *Throttle {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &Throttle{client: client, maxAttempts: maxAttempts, window: window}
}

func (t *Throttle) key(identifier string) string {
	return "login_attempts:" + identifier
}

func (t *Throttle) Blocked(ctx context.Context, identifier string) (bool, error) {
	count, err := t.client.Get(ctx, t.key(identifier)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("throttle get: %w", err)
	}
	return count >= t.maxAttempts, nil
}

func (t *Throttle) RecordFailure(ctx context.Context, identifier string) error {
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, t.key(identifier))
	pipe.Expire(ctx, t.key(identifier), t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("throttle record: %w", err)
	}
	return nil
}

func (t *Throttle) Reset(ctx context.Context, identifier string) error {
	if err := t.client.Del(ctx, t.key(identifier)).Err(); err != nil {
		return fmt.Errorf("throttle reset: %w", err)
	}
	return nil
}
