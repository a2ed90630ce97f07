package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

// RedisLimiter implements the window over a Redis sorted set of request
// timestamps scored by time, so limits hold across processes. On any
// backend error it fails open: the request is treated as allowed and the
// error is logged. Availability is preferred over strict enforcement.
type RedisLimiter struct {
	provider string
	limit    int
	client   *redis.Client
	now      func() time.Time
}

// NewRedisLimiter creates a Redis-backed limiter. The connection is
// verified up front so a bad address surfaces at startup.
func NewRedisLimiter(provider string, limit int, addr string) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  redisOpTimeout,
		WriteTimeout: redisOpTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ratelimit: connecting to redis at %s: %w", addr, err)
	}

	return &RedisLimiter{
		provider: provider,
		limit:    limit,
		client:   client,
		now:      time.Now,
	}, nil
}

// Close releases the Redis connection.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

func (l *RedisLimiter) key(key string) string {
	return fmt.Sprintf("ratelimit:%s:%s", l.provider, key)
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	rkey := l.key(key)
	now := float64(l.now().UnixNano()) / float64(time.Second)

	pipe := l.client.TxPipeline()
	pipe.ZAdd(ctx, rkey, redis.Z{Score: now, Member: strconv.FormatFloat(now, 'f', -1, 64)})
	pipe.ZRemRangeByScore(ctx, rkey, "0", strconv.FormatFloat(now-Window.Seconds(), 'f', -1, 64))
	card := pipe.ZCard(ctx, rkey)
	pipe.Expire(ctx, rkey, Window)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("redis rate limiter error, failing open", "provider", l.provider, "err", err)
		return true
	}

	if card.Val() <= int64(l.limit) {
		return true
	}
	slog.Warn("rate limit exceeded", "provider", l.provider, "key", key, "backend", "redis")
	return false
}

// Remaining implements Limiter.
func (l *RedisLimiter) Remaining(key string) int {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	rkey := l.key(key)
	now := float64(l.now().UnixNano()) / float64(time.Second)

	if err := l.client.ZRemRangeByScore(ctx, rkey, "0",
		strconv.FormatFloat(now-Window.Seconds(), 'f', -1, 64)).Err(); err != nil {
		slog.Error("redis rate limiter error", "provider", l.provider, "err", err)
		return l.limit
	}
	count, err := l.client.ZCard(ctx, rkey).Result()
	if err != nil {
		slog.Error("redis rate limiter error", "provider", l.provider, "err", err)
		return l.limit
	}

	if rem := l.limit - int(count); rem > 0 {
		return rem
	}
	return 0
}

// Reset implements Limiter.
func (l *RedisLimiter) Reset(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		slog.Error("redis rate limiter reset error", "provider", l.provider, "err", err)
	}
}
