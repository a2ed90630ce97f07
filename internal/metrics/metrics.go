// Package metrics records per-call statistics for provider API usage and
// aggregates them per provider:operation key.
package metrics

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// maxRecentCalls bounds the recent-call ring buffer.
const maxRecentCalls = 1000

// CallRecord captures one provider API call. It is created at call start
// and completed exactly once at call end, then never mutated.
type CallRecord struct {
	Provider       string
	Operation      string
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	Success        bool
	ErrorMessage   string
	PromptLength   int
	ResponseLength int
	Cached         bool
	RateLimited    bool
}

// complete fills in the end-of-call fields.
func (r *CallRecord) complete(now time.Time, err error) {
	r.EndTime = now
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = err == nil
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// Aggregate holds running totals for one provider:operation key. Counters
// only grow; Reset on the collector is the sole way back to zero.
type Aggregate struct {
	TotalCalls          int
	SuccessfulCalls     int
	FailedCalls         int
	TotalDuration       time.Duration
	AvgDuration         time.Duration
	CacheHits           int
	CacheMisses         int
	RateLimitHits       int
	TotalPromptLength   int
	TotalResponseLength int
}

func (a *Aggregate) add(r CallRecord) {
	a.TotalCalls++
	if r.Success {
		a.SuccessfulCalls++
	} else {
		a.FailedCalls++
	}
	a.TotalDuration += r.Duration
	if r.Cached {
		a.CacheHits++
	} else {
		a.CacheMisses++
	}
	if r.RateLimited {
		a.RateLimitHits++
	}
	a.TotalPromptLength += r.PromptLength
	a.TotalResponseLength += r.ResponseLength
	a.AvgDuration = a.TotalDuration / time.Duration(a.TotalCalls)
}

// Summary holds cross-aggregate totals.
type Summary struct {
	TotalCalls      int
	SuccessfulCalls int
	FailedCalls     int
	SuccessRate     float64
	TotalDuration   time.Duration
	AvgDuration     time.Duration
	Providers       []string
	Operations      []string
}

// Sink receives every completed record, for durable history. Sink errors
// are logged by the collector, never surfaced to the recording call.
type Sink interface {
	SaveRecord(CallRecord) error
}

// Collector aggregates call records under a single lock so concurrent
// recorders fold in atomically.
type Collector struct {
	mu         sync.Mutex
	aggregates map[string]*Aggregate
	recent     []CallRecord
	sink       Sink
	now        func() time.Time
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		aggregates: make(map[string]*Aggregate),
		now:        time.Now,
	}
}

// SetSink attaches a durable record sink.
func (c *Collector) SetSink(s Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = s
}

func aggregateKey(provider, operation string) string {
	return provider + ":" + operation
}

// Record appends r to the recent ring (dropping the oldest beyond
// capacity) and folds it into the provider:operation aggregate.
func (c *Collector) Record(r CallRecord) {
	c.mu.Lock()
	c.recent = append(c.recent, r)
	if len(c.recent) > maxRecentCalls {
		c.recent = c.recent[1:]
	}

	key := aggregateKey(r.Provider, r.Operation)
	agg, ok := c.aggregates[key]
	if !ok {
		agg = &Aggregate{}
		c.aggregates[key] = agg
	}
	agg.add(r)
	sink := c.sink
	c.mu.Unlock()

	if sink != nil {
		if err := sink.SaveRecord(r); err != nil {
			slog.Error("metrics sink error", "err", err)
		}
	}

	slog.Debug("recorded api call",
		"provider", r.Provider, "operation", r.Operation,
		"duration", r.Duration, "success", r.Success)
}

// Aggregated returns a snapshot of aggregates filtered by provider and/or
// operation; empty filters match everything.
func (c *Collector) Aggregated(provider, operation string) map[string]Aggregate {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]Aggregate)
	for key, agg := range c.aggregates {
		p, o := splitKey(key)
		if provider != "" && p != provider {
			continue
		}
		if operation != "" && o != operation {
			continue
		}
		out[key] = *agg
	}
	return out
}

// RecentCalls returns up to limit most recent records, newest last.
func (c *Collector) RecentCalls(limit int) []CallRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	if limit <= 0 || limit > len(c.recent) {
		limit = len(c.recent)
	}
	out := make([]CallRecord, limit)
	copy(out, c.recent[len(c.recent)-limit:])
	return out
}

// SummaryStats computes cross-aggregate totals. The success rate is 0
// when no calls have been recorded.
func (c *Collector) SummaryStats() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{}
	providers := make(map[string]struct{})
	operations := make(map[string]struct{})

	for key, agg := range c.aggregates {
		s.TotalCalls += agg.TotalCalls
		s.SuccessfulCalls += agg.SuccessfulCalls
		s.TotalDuration += agg.TotalDuration

		p, o := splitKey(key)
		providers[p] = struct{}{}
		operations[o] = struct{}{}
	}
	s.FailedCalls = s.TotalCalls - s.SuccessfulCalls
	if s.TotalCalls > 0 {
		s.SuccessRate = float64(s.SuccessfulCalls) / float64(s.TotalCalls)
		s.AvgDuration = s.TotalDuration / time.Duration(s.TotalCalls)
	}
	for p := range providers {
		s.Providers = append(s.Providers, p)
	}
	for o := range operations {
		s.Operations = append(s.Operations, o)
	}
	return s
}

// Reset clears all aggregates and recent records.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aggregates = make(map[string]*Aggregate)
	c.recent = nil
	slog.Info("metrics reset")
}

func splitKey(key string) (provider, operation string) {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}

// Scope wraps one call: Start opens the record, Done completes and
// records it exactly once however control leaves the calling scope.
type Scope struct {
	collector *Collector
	record    CallRecord
	done      bool
}

// Start opens a scoped record for one provider call.
func (c *Collector) Start(provider, operation string, promptLength int) *Scope {
	return &Scope{
		collector: c,
		record: CallRecord{
			Provider:     provider,
			Operation:    operation,
			StartTime:    c.now(),
			PromptLength: promptLength,
		},
	}
}

// SetResponseLength records the response size; call only on success.
func (s *Scope) SetResponseLength(n int) {
	s.record.ResponseLength = n
}

// MarkRateLimited flags the record as a rate-limit denial.
func (s *Scope) MarkRateLimited() {
	s.record.RateLimited = true
}

// Done completes the record with the call outcome and hands it to the
// collector. Subsequent calls are no-ops.
func (s *Scope) Done(err error) {
	if s.done {
		return
	}
	s.done = true
	s.record.complete(s.collector.now(), err)
	s.collector.Record(s.record)
}

// FormatKey renders an aggregate key back into its display form.
func FormatKey(provider, operation string) string {
	return fmt.Sprintf("%s:%s", provider, operation)
}
