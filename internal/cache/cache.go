// Package cache provides content-addressed memoization of generation
// calls with pluggable in-memory and Redis backends.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"
)

// Backend is the storage contract. Implementations never surface
// infrastructure errors: a failed read is a miss, a failed write a no-op.
type Backend interface {
	Get(key string) (string, bool)
	Set(key string, value string, ttl time.Duration)
	Delete(key string)
	Clear()
}

// Cache wraps a backend with key derivation and a memoizing call helper.
type Cache struct {
	backend    Backend
	defaultTTL time.Duration
	disabled   bool
}

// New creates a cache over the given backend. A zero defaultTTL falls
// back to one hour. When disabled, Do becomes a pass-through.
func New(backend Backend, defaultTTL time.Duration, disabled bool) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &Cache{backend: backend, defaultTTL: defaultTTL, disabled: disabled}
}

// Key derives a deterministic cache key from an operation name, its
// positional args (order-dependent) and keyword args (order-independent;
// JSON encodes map keys sorted).
func Key(op string, args []any, kwargs map[string]any) string {
	payload := struct {
		Op     string         `json:"op"`
		Args   []any          `json:"args"`
		Kwargs map[string]any `json:"kwargs,omitempty"`
	}{Op: op, Args: args, Kwargs: kwargs}

	data, err := json.Marshal(payload)
	if err != nil {
		// Unmarshalable args degrade to the op name; the entry is still
		// correct, just less specific.
		slog.Warn("cache key encoding failed", "op", op, "err", err)
		data = []byte(op)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get reads a value by key.
func (c *Cache) Get(key string) (string, bool) {
	return c.backend.Get(key)
}

// Set stores a value with the given TTL (default TTL when ttl <= 0).
func (c *Cache) Set(key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.backend.Set(key, value, ttl)
}

// Delete removes a key.
func (c *Cache) Delete(key string) {
	c.backend.Delete(key)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.backend.Clear()
}

// Do memoizes fn under the derived key: on a hit the stored value is
// returned and fn is not invoked; on a miss the result is written back
// with ttl. The second return reports whether the value came from cache.
func (c *Cache) Do(op string, args []any, ttl time.Duration, fn func() (string, error)) (string, bool, error) {
	if c == nil || c.disabled {
		v, err := fn()
		return v, false, err
	}

	key := Key(op, args, nil)
	if v, ok := c.backend.Get(key); ok {
		slog.Debug("cache hit", "op", op, "key", key[:16])
		return v, true, nil
	}

	v, err := fn()
	if err != nil {
		return "", false, err
	}
	c.Set(key, v, ttl)
	return v, false, nil
}
