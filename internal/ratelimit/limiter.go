// Package ratelimit provides fixed-window request admission control,
// one limiter per provider, with in-memory and Redis backends.
package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

// Window is the trailing period over which requests are counted.
const Window = 60 * time.Second

// Limiter is the admission-control contract shared by all backends.
type Limiter interface {
	// Allow reports whether a request for key fits in the current window,
	// recording it when it does.
	Allow(key string) bool
	// Remaining returns how many requests are left in the current window.
	Remaining(key string) int
	// Reset clears the window for key.
	Reset(key string)
}

// MemoryLimiter keeps per-key request timestamps in process memory.
type MemoryLimiter struct {
	provider string
	limit    int
	now      func() time.Time

	mu      sync.Mutex
	windows map[string][]time.Time
}

// NewMemoryLimiter creates a limiter for the given provider allowing
// limit requests per minute per key.
func NewMemoryLimiter(provider string, limit int) *MemoryLimiter {
	return &MemoryLimiter{
		provider: provider,
		limit:    limit,
		now:      time.Now,
		windows:  make(map[string][]time.Time),
	}
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	window := l.purge(key, now)

	if len(window) < l.limit {
		l.windows[key] = append(window, now)
		return true
	}

	l.windows[key] = window
	slog.Warn("rate limit exceeded", "provider", l.provider, "key", key)
	return false
}

// Remaining implements Limiter.
func (l *MemoryLimiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	window := l.purge(key, l.now())
	l.windows[key] = window
	if rem := l.limit - len(window); rem > 0 {
		return rem
	}
	return 0
}

// Reset implements Limiter.
func (l *MemoryLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// purge drops timestamps older than the window. Caller holds the lock.
func (l *MemoryLimiter) purge(key string, now time.Time) []time.Time {
	window := l.windows[key]
	kept := window[:0]
	for _, ts := range window {
		if now.Sub(ts) < Window {
			kept = append(kept, ts)
		}
	}
	return kept
}
