package agent

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/MateoRodr13/qa-test-generator/internal/cache"
	"github.com/MateoRodr13/qa-test-generator/internal/config"
	"github.com/MateoRodr13/qa-test-generator/internal/metrics"
	"github.com/MateoRodr13/qa-test-generator/internal/ratelimit"
)

// Build constructs a fully wired agent for the named provider: one rate
// limiter per provider, the shared cache, and the shared collector.
// The Redis backends are selected by configuration and fall back to
// memory when the connection cannot be established.
func Build(provider string, cfg config.Config, collector *metrics.Collector) (*Agent, error) {
	pc := cfg.Provider[provider]

	var p Provider
	var err error
	switch provider {
	case "gemini":
		p, err = NewGeminiProvider(config.APIKey(cfg, "gemini"), pc.Model)
	case "openai":
		p, err = NewOpenAIProvider(config.APIKey(cfg, "openai"), pc.Model)
	default:
		return nil, fmt.Errorf("agent: unsupported provider %q", provider)
	}
	if err != nil {
		return nil, err
	}

	limit := pc.RequestsPerMinute
	if limit <= 0 {
		limit = config.DefaultRequestsPerMinute
	}

	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter(provider, limit)
	var backend cache.Backend = cache.NewMemoryBackend()

	if cfg.Cache.Backend == "redis" {
		addr := config.RedisAddr(cfg)
		if rl, err := ratelimit.NewRedisLimiter(provider, limit, addr); err != nil {
			slog.Warn("redis rate limiter unavailable, using memory", "provider", provider, "err", err)
		} else {
			limiter = rl
		}
		if rb, err := cache.NewRedisBackend(addr); err != nil {
			slog.Warn("redis cache unavailable, using memory", "err", err)
		} else {
			backend = rb
		}
	}

	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	c := cache.New(backend, ttl, cfg.Cache.Disabled)

	return New(p, Options{
		Limiter:   limiter,
		Cache:     c,
		Collector: collector,
		CacheTTL:  ttl,
	}), nil
}
