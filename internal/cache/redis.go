package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

// RedisBackend is a durable external store. Values are serialized as
// JSON text; serialization or backend failures are logged and treated
// as a miss (read) or no-op (write), never returned to the caller.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to Redis at addr, verifying the connection.
func NewRedisBackend(addr string) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  redisOpTimeout,
		WriteTimeout: redisOpTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: connecting to redis at %s: %w", addr, err)
	}

	return &RedisBackend{client: client}, nil
}

// Close releases the Redis connection.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}

func cacheKey(key string) string {
	return "qacache:" + key
}

// Get implements Backend.
func (r *RedisBackend) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := r.client.Get(ctx, cacheKey(key)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		slog.Error("redis cache get error", "err", err)
		return "", false
	}

	var value string
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		slog.Error("redis cache deserialize error", "err", err)
		return "", false
	}
	return value, true
}

// Set implements Backend.
func (r *RedisBackend) Set(key, value string, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Error("redis cache serialize error", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.client.Set(ctx, cacheKey(key), string(data), ttl).Err(); err != nil {
		slog.Error("redis cache set error", "err", err)
	}
}

// Delete implements Backend.
func (r *RedisBackend) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.client.Del(ctx, cacheKey(key)).Err(); err != nil {
		slog.Error("redis cache delete error", "err", err)
	}
}

// Clear implements Backend.
func (r *RedisBackend) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	iter := r.client.Scan(ctx, 0, cacheKey("*"), 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		slog.Error("redis cache scan error", "err", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		slog.Error("redis cache clear error", "err", err)
	}
}
