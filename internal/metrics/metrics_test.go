package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func record(provider, op string, dur time.Duration, success bool) CallRecord {
	r := CallRecord{
		Provider:  provider,
		Operation: op,
		StartTime: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Duration:  dur,
		Success:   success,
	}
	r.EndTime = r.StartTime.Add(dur)
	return r
}

func TestRecord_Aggregation(t *testing.T) {
	c := NewCollector()

	c.Record(record("gemini", "generate", 2*time.Second, true))
	c.Record(record("gemini", "generate", 4*time.Second, true))
	c.Record(record("gemini", "generate", 3*time.Second, false))

	aggs := c.Aggregated("gemini", "generate")
	agg, ok := aggs["gemini:generate"]
	if !ok {
		t.Fatal("missing aggregate for gemini:generate")
	}

	if agg.TotalCalls != 3 {
		t.Errorf("TotalCalls = %d, want 3", agg.TotalCalls)
	}
	if agg.SuccessfulCalls+agg.FailedCalls != agg.TotalCalls {
		t.Errorf("successful %d + failed %d != total %d",
			agg.SuccessfulCalls, agg.FailedCalls, agg.TotalCalls)
	}
	if agg.TotalDuration != 9*time.Second {
		t.Errorf("TotalDuration = %v, want 9s", agg.TotalDuration)
	}
	if agg.AvgDuration != 3*time.Second {
		t.Errorf("AvgDuration = %v, want 3s", agg.AvgDuration)
	}
}

func TestAggregated_Filters(t *testing.T) {
	c := NewCollector()
	c.Record(record("gemini", "generate", time.Second, true))
	c.Record(record("openai", "generate", time.Second, true))
	c.Record(record("gemini", "translate", time.Second, true))

	if got := len(c.Aggregated("gemini", "")); got != 2 {
		t.Errorf("provider filter matched %d keys, want 2", got)
	}
	if got := len(c.Aggregated("", "generate")); got != 2 {
		t.Errorf("operation filter matched %d keys, want 2", got)
	}
	if got := len(c.Aggregated("openai", "generate")); got != 1 {
		t.Errorf("exact filter matched %d keys, want 1", got)
	}
	if got := len(c.Aggregated("", "")); got != 3 {
		t.Errorf("no filter matched %d keys, want 3", got)
	}
}

func TestSummaryStats(t *testing.T) {
	c := NewCollector()

	empty := c.SummaryStats()
	if empty.SuccessRate != 0 {
		t.Errorf("SuccessRate with no calls = %v, want 0", empty.SuccessRate)
	}

	c.Record(record("gemini", "generate", 2*time.Second, true))
	c.Record(record("gemini", "generate", 2*time.Second, false))
	c.Record(record("openai", "generate", 2*time.Second, true))
	c.Record(record("openai", "generate", 2*time.Second, true))

	s := c.SummaryStats()
	if s.TotalCalls != 4 {
		t.Errorf("TotalCalls = %d, want 4", s.TotalCalls)
	}
	if s.SuccessRate != 0.75 {
		t.Errorf("SuccessRate = %v, want 0.75", s.SuccessRate)
	}
	if len(s.Providers) != 2 {
		t.Errorf("Providers = %v, want 2 entries", s.Providers)
	}
}

func TestRecentCalls_Bounded(t *testing.T) {
	c := NewCollector()

	for i := 0; i < maxRecentCalls+50; i++ {
		c.Record(record("gemini", "generate", time.Second, true))
	}

	if got := len(c.RecentCalls(0)); got != maxRecentCalls {
		t.Errorf("recent ring holds %d records, want %d", got, maxRecentCalls)
	}
	if got := len(c.RecentCalls(10)); got != 10 {
		t.Errorf("RecentCalls(10) returned %d, want 10", got)
	}
}

func TestScope_RecordsExactlyOnce(t *testing.T) {
	c := NewCollector()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	calls := 0
	c.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}

	scope := c.Start("gemini", "generate", 42)
	scope.SetResponseLength(100)
	scope.Done(nil)
	scope.Done(errors.New("should be ignored"))

	aggs := c.Aggregated("gemini", "generate")
	agg := aggs["gemini:generate"]
	if agg.TotalCalls != 1 {
		t.Fatalf("TotalCalls = %d, want 1 (Done is idempotent)", agg.TotalCalls)
	}
	if agg.SuccessfulCalls != 1 {
		t.Errorf("SuccessfulCalls = %d, want 1", agg.SuccessfulCalls)
	}
	if agg.TotalPromptLength != 42 {
		t.Errorf("TotalPromptLength = %d, want 42", agg.TotalPromptLength)
	}
	if agg.TotalResponseLength != 100 {
		t.Errorf("TotalResponseLength = %d, want 100", agg.TotalResponseLength)
	}
}

func TestScope_FailureCapturesError(t *testing.T) {
	c := NewCollector()

	scope := c.Start("gemini", "generate", 10)
	scope.Done(errors.New("network timeout"))

	recent := c.RecentCalls(1)
	if len(recent) != 1 {
		t.Fatal("expected one recorded call")
	}
	if recent[0].Success {
		t.Error("failed call marked successful")
	}
	if recent[0].ErrorMessage != "network timeout" {
		t.Errorf("ErrorMessage = %q, want %q", recent[0].ErrorMessage, "network timeout")
	}
}

func TestRecord_ConcurrentRecorders(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Record(record("gemini", "generate", time.Second, true))
			}
		}()
	}
	wg.Wait()

	agg := c.Aggregated("gemini", "generate")["gemini:generate"]
	if agg.TotalCalls != 800 {
		t.Errorf("TotalCalls = %d, want 800", agg.TotalCalls)
	}
}

func TestReset(t *testing.T) {
	c := NewCollector()
	c.Record(record("gemini", "generate", time.Second, true))

	c.Reset()

	if got := c.SummaryStats().TotalCalls; got != 0 {
		t.Errorf("TotalCalls after reset = %d, want 0", got)
	}
	if got := len(c.RecentCalls(0)); got != 0 {
		t.Errorf("recent calls after reset = %d, want 0", got)
	}
}
