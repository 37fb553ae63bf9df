// Package ratelimit implements fixed-window counters used for the login
// attempt budget and the outgoing mail limits.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrUnavailable = errors.New("rate limiter unavailable")

// LimitError reports a spent budget. It unwraps to Err, which is one of the
// common limit sentinels.
type LimitError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *LimitError) Error() string { return e.Err.Error() }

func (e *LimitError) Unwrap() error { return e.Err }

// Limiter counts hits per key in a fixed window.
type Limiter interface {
	// Take records one hit. It returns false and the time until the window
	// resets once more than limit hits were recorded.
	Take(ctx context.Context, key string, limit int64, window time.Duration) (bool, time.Duration, error)
	// Reset forgets the key.
	Reset(ctx context.Context, key string) error
}

type RedisLimiter struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisLimiter(rdb redis.UniversalClient, prefix string) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix}
}

func (l *RedisLimiter) Take(ctx context.Context, key string, limit int64, window time.Duration) (bool, time.Duration, error) {
	k := l.prefix + key

	count, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, k, window).Err(); err != nil {
			return false, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if count <= limit {
		return true, 0, nil
	}

	ttl, err := l.rdb.TTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ttl < 0 {
		// the expiry was lost, so the key would never reset
		_ = l.rdb.Expire(ctx, k, window).Err()
		ttl = window
	}
	return false, ttl, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.rdb.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// NopLimiter allows everything. Used when no Redis address is configured.
type NopLimiter struct{}

func (NopLimiter) Take(context.Context, string, int64, time.Duration) (bool, time.Duration, error) {
	return true, 0, nil
}

func (NopLimiter) Reset(context.Context, string) error { return nil }
