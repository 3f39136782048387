package cache

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newTestCache(t *testing.T) (*Cache[string], *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	return NewWithClock[string](clock.Now), clock
}

func TestCacheSetGet(t *testing.T) {
	c, clock := newTestCache(t)

	c.Set("k", "v", time.Minute)

	entry, ok := c.Get("k")
	if !ok {
		t.Fatalf("expected hit")
	}
	if entry.Data != "v" {
		t.Fatalf("unexpected data: %q", entry.Data)
	}
	if !entry.ExpiresAt.After(entry.CreatedAt) {
		t.Fatalf("expiresAt %v not after createdAt %v", entry.ExpiresAt, entry.CreatedAt)
	}
	if got, want := entry.ExpiresAt, clock.Now().Add(time.Minute); !got.Equal(want) {
		t.Fatalf("expiresAt %v != %v", got, want)
	}
}

func TestCacheExpiryEvictsOnRead(t *testing.T) {
	c, clock := newTestCache(t)

	c.Set("k", "v", time.Minute)

	clock.Advance(time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("entry at exact deadline should still be valid")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted, len=%d", c.Len())
	}
}

func TestCacheOverwrite(t *testing.T) {
	c, clock := newTestCache(t)

	c.Set("k", "old", time.Second)
	clock.Advance(30 * time.Minute)
	c.Set("k", "new", time.Minute)

	entry, ok := c.Get("k")
	if !ok || entry.Data != "new" {
		t.Fatalf("expected overwritten entry, got %+v ok=%v", entry, ok)
	}
}

func TestCacheHas(t *testing.T) {
	c, clock := newTestCache(t)

	c.Set("k", "v", time.Minute)
	if !c.Has("k") {
		t.Fatalf("expected Has to report entry")
	}

	clock.Advance(2 * time.Minute)
	if c.Has("k") {
		t.Fatalf("expected Has to report expiry")
	}
	if c.Len() != 0 {
		t.Fatalf("Has should evict expired entries, len=%d", c.Len())
	}
}

func TestCacheDelete(t *testing.T) {
	c, _ := newTestCache(t)

	c.Set("k", "v", time.Minute)
	if !c.Delete("k") {
		t.Fatalf("expected delete to report existing entry")
	}
	if c.Delete("k") {
		t.Fatalf("expected delete on missing key to report false")
	}
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestCacheCleanup(t *testing.T) {
	c, clock := newTestCache(t)

	c.Set("short", "v", time.Second)
	c.Set("long", "v", time.Hour)

	clock.Advance(time.Minute)
	c.Cleanup()

	if c.Len() != 1 {
		t.Fatalf("expected one surviving entry, len=%d", c.Len())
	}
	if _, ok := c.Get("long"); !ok {
		t.Fatalf("expected long-lived entry to survive cleanup")
	}
}
