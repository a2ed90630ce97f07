package cache

import (
	"errors"
	"testing"
	"time"
)

// newTestBackend returns a memory backend with a controllable clock.
func newTestBackend(t *testing.T) (*MemoryBackend, *time.Time) {
	t.Helper()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	b := NewMemoryBackend()
	b.now = func() time.Time { return now }
	return b, &now
}

func TestMemoryBackend_SetGet(t *testing.T) {
	b, _ := newTestBackend(t)

	b.Set("k", "v", time.Minute)

	got, ok := b.Get("k")
	if !ok {
		t.Fatal("expected hit immediately after set")
	}
	if got != "v" {
		t.Errorf("Get = %q, want %q", got, "v")
	}
}

func TestMemoryBackend_TTLExpiry(t *testing.T) {
	b, now := newTestBackend(t)

	b.Set("k", "v", time.Minute)
	*now = now.Add(time.Minute)

	if _, ok := b.Get("k"); ok {
		t.Error("expected miss after TTL elapsed")
	}
	// Lazy eviction removed the entry entirely.
	b.mu.Lock()
	_, present := b.entries["k"]
	b.mu.Unlock()
	if present {
		t.Error("expired entry should be deleted on read")
	}
}

func TestMemoryBackend_DeleteAndClear(t *testing.T) {
	b, _ := newTestBackend(t)

	b.Set("a", "1", time.Minute)
	b.Set("b", "2", time.Minute)

	b.Delete("a")
	if _, ok := b.Get("a"); ok {
		t.Error("deleted key should miss")
	}

	b.Clear()
	if _, ok := b.Get("b"); ok {
		t.Error("cleared key should miss")
	}
}

func TestKey_Deterministic(t *testing.T) {
	k1 := Key("generate", []any{"prompt text"}, nil)
	k2 := Key("generate", []any{"prompt text"}, nil)
	if k1 != k2 {
		t.Error("identical inputs should produce identical keys")
	}

	if Key("generate", []any{"other"}, nil) == k1 {
		t.Error("different args should produce different keys")
	}
	if Key("translate", []any{"prompt text"}, nil) == k1 {
		t.Error("different op should produce different keys")
	}
}

func TestKey_PositionalOrderMatters(t *testing.T) {
	a := Key("op", []any{"x", "y"}, nil)
	b := Key("op", []any{"y", "x"}, nil)
	if a == b {
		t.Error("positional args are order-dependent")
	}
}

func TestKey_KwargsOrderIndependent(t *testing.T) {
	a := Key("op", nil, map[string]any{"model": "gemini", "temp": 0.7})
	b := Key("op", nil, map[string]any{"temp": 0.7, "model": "gemini"})
	if a != b {
		t.Error("keyword args are order-independent")
	}
}

func TestDo_InvokesAtMostOnce(t *testing.T) {
	c := New(NewMemoryBackend(), time.Hour, false)

	calls := 0
	fn := func() (string, error) {
		calls++
		return "result", nil
	}

	v1, hit1, err := c.Do("generate", []any{"prompt"}, 0, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v2, hit2, err := c.Do("generate", []any{"prompt"}, 0, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Errorf("fn invoked %d times, want 1", calls)
	}
	if v1 != "result" || v2 != "result" {
		t.Errorf("values = %q, %q, want %q", v1, v2, "result")
	}
	if hit1 {
		t.Error("first call should be a miss")
	}
	if !hit2 {
		t.Error("second call should be a hit")
	}
}

func TestDo_ErrorNotCached(t *testing.T) {
	c := New(NewMemoryBackend(), time.Hour, false)

	calls := 0
	fn := func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("provider down")
		}
		return "ok", nil
	}

	if _, _, err := c.Do("generate", []any{"p"}, 0, fn); err == nil {
		t.Fatal("expected error from first call")
	}
	v, hit, err := c.Do("generate", []any{"p"}, 0, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Error("failed result must not be cached")
	}
	if v != "ok" {
		t.Errorf("value = %q, want ok", v)
	}
}

func TestDo_DisabledPassesThrough(t *testing.T) {
	c := New(NewMemoryBackend(), time.Hour, true)

	calls := 0
	fn := func() (string, error) {
		calls++
		return "result", nil
	}

	c.Do("generate", []any{"prompt"}, 0, fn)
	_, hit, _ := c.Do("generate", []any{"prompt"}, 0, fn)

	if calls != 2 {
		t.Errorf("fn invoked %d times, want 2 when disabled", calls)
	}
	if hit {
		t.Error("disabled cache never reports a hit")
	}
}
