// Package agent wraps LLM providers with retry, rate limiting, caching,
// and metrics in a fixed composition order.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/MateoRodr13/qa-test-generator/internal/cache"
	"github.com/MateoRodr13/qa-test-generator/internal/metrics"
	"github.com/MateoRodr13/qa-test-generator/internal/ratelimit"
)

var (
	// ErrRateLimited indicates the local per-minute quota is exhausted.
	// It is raised without waiting and remains retryable by the outer
	// retry layer.
	ErrRateLimited = errors.New("agent: rate limit exceeded")
	// ErrInvalidResponse indicates an empty or unusable generation.
	ErrInvalidResponse = errors.New("agent: invalid response")
	// ErrNotConfigured indicates a missing provider credential.
	ErrNotConfigured = errors.New("agent: provider not configured")
)

// Operation is the single generation operation name used for cache keys,
// rate-limit windows, and metrics.
const Operation = "generate"

// Retry defaults.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

// Provider is the underlying generation capability. Implementations fail
// with a provider error on any transport or API failure; resilience is
// supplied here, not at that boundary.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerateFunc is one link of the composed call chain.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// Middleware wraps a GenerateFunc with one resilience concern.
type Middleware func(next GenerateFunc) GenerateFunc

// Agent is a provider decorated with the full resilience chain, built
// once at construction: retry, rate limit, cache, metrics scope, call.
type Agent struct {
	provider Provider
	call     GenerateFunc
}

// Options configures the resilience chain. Limiter, Cache, and Collector
// are injected so tests construct fresh instances per case; nil disables
// the corresponding layer.
type Options struct {
	Limiter    ratelimit.Limiter
	Cache      *cache.Cache
	Collector  *metrics.Collector
	CacheTTL   time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	Sleep      func(time.Duration) // test hook, defaults to time.Sleep
}

// New builds an agent over the provider with the chain composed
// outermost to innermost: retry, rate limit, cache, metrics, provider.
func New(p Provider, opts Options) *Agent {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}

	call := p.Generate
	for _, mw := range []Middleware{
		metricsMiddleware(p.Name(), opts.Collector),
		cacheMiddleware(p.Name(), opts.Cache, opts.CacheTTL),
		rateLimitMiddleware(p.Name(), opts.Limiter, opts.Collector),
		retryMiddleware(p.Name(), opts.MaxRetries, opts.BaseDelay, opts.Sleep),
	} {
		call = mw(call)
	}

	return &Agent{provider: p, call: call}
}

// Name returns the provider name.
func (a *Agent) Name() string {
	return a.provider.Name()
}

// Generate runs the composed call chain for one prompt.
func (a *Agent) Generate(ctx context.Context, prompt string) (string, error) {
	return a.call(ctx, prompt)
}

// ValidateResponse reports whether a generated artifact is usable.
// Consulted by the calling workflow, never by the agent itself.
func ValidateResponse(response string) bool {
	return strings.TrimSpace(response) != ""
}

// retryMiddleware retries failed calls with exponential backoff. Only the
// final attempt's error propagates.
func retryMiddleware(provider string, maxRetries int, baseDelay time.Duration, sleep func(time.Duration)) Middleware {
	return func(next GenerateFunc) GenerateFunc {
		return func(ctx context.Context, prompt string) (string, error) {
			var lastErr error
			for attempt := 0; attempt < maxRetries; attempt++ {
				result, err := next(ctx, prompt)
				if err == nil {
					return result, nil
				}
				lastErr = err

				if attempt < maxRetries-1 {
					backoff := baseDelay * time.Duration(1<<attempt)
					slog.Warn("generation attempt failed, retrying",
						"provider", provider, "attempt", attempt+1,
						"backoff", backoff, "err", err)
					sleep(backoff)
				} else {
					slog.Error("all generation attempts failed",
						"provider", provider, "attempts", maxRetries, "err", err)
				}
			}
			return "", lastErr
		}
	}
}

// rateLimitMiddleware fails immediately with ErrRateLimited when the
// provider's current-minute quota is exhausted; there is no backoff wait
// here, the outer retry layer supplies it.
func rateLimitMiddleware(provider string, limiter ratelimit.Limiter, collector *metrics.Collector) Middleware {
	return func(next GenerateFunc) GenerateFunc {
		if limiter == nil {
			return next
		}
		return func(ctx context.Context, prompt string) (string, error) {
			if !limiter.Allow(Operation) {
				if collector != nil {
					scope := collector.Start(provider, Operation, len(prompt))
					scope.MarkRateLimited()
					scope.Done(ErrRateLimited)
				}
				return "", fmt.Errorf("%w: provider %s", ErrRateLimited, provider)
			}
			return next(ctx, prompt)
		}
	}
}

// cacheMiddleware memoizes results keyed by operation and prompt. A hit
// short-circuits everything inside it, including the metrics scope.
func cacheMiddleware(provider string, c *cache.Cache, ttl time.Duration) Middleware {
	return func(next GenerateFunc) GenerateFunc {
		if c == nil {
			return next
		}
		return func(ctx context.Context, prompt string) (string, error) {
			result, hit, err := c.Do(Operation, []any{provider, prompt}, ttl, func() (string, error) {
				return next(ctx, prompt)
			})
			if hit {
				slog.Debug("generation served from cache", "provider", provider)
			}
			return result, err
		}
	}
}

// metricsMiddleware wraps each non-cached attempt in a scoped recorder.
// The record is completed exactly once regardless of how the call exits.
func metricsMiddleware(provider string, collector *metrics.Collector) Middleware {
	return func(next GenerateFunc) GenerateFunc {
		if collector == nil {
			return next
		}
		return func(ctx context.Context, prompt string) (result string, err error) {
			scope := collector.Start(provider, Operation, len(prompt))
			defer func() { scope.Done(err) }()

			result, err = next(ctx, prompt)
			if err == nil {
				scope.SetResponseLength(len(result))
			}
			return result, err
		}
	}
}

var fenceRe = regexp.MustCompile("```[a-zA-Z]*\n?")

// CleanFences strips markdown code fences from a model response. It is
// idempotent on already-clean text, since the cache may replay a value
// that was cleaned before being stored.
func CleanFences(text string) string {
	if text == "" {
		return text
	}
	text = fenceRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
