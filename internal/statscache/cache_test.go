package statscache

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := New[string, int](time.Minute, clock)
	cache.Set("grades", 7)

	if got, ok := cache.Get("grades"); !ok || got != 7 {
		t.Fatalf("Get = %d, %v; want 7, true", got, ok)
	}
	clock.Advance(59 * time.Second)
	if _, ok := cache.Get("grades"); !ok {
		t.Fatal("entry expired early")
	}
	clock.Advance(time.Second)
	if _, ok := cache.Get("grades"); ok {
		t.Fatal("entry should have expired")
	}
	if cache.Len() != 0 {
		t.Fatalf("Len = %d, want 0 after expiry", cache.Len())
	}
}

func TestCacheInvalidate(t *testing.T) {
	cache := New[string, string](time.Hour, ClockFunc(time.Now))
	cache.Set("a", "1")
	cache.Set("b", "2")
	cache.Invalidate("a")
	if _, ok := cache.Get("a"); ok {
		t.Fatal("a should be gone")
	}
	if _, ok := cache.Get("b"); !ok {
		t.Fatal("b should remain")
	}
	cache.InvalidateAll()
	if cache.Len() != 0 {
		t.Fatalf("Len = %d, want 0", cache.Len())
	}
}

func TestCacheDisabledWithZeroTTL(t *testing.T) {
	cache := New[string, int](0, nil)
	cache.Set("a", 1)
	if _, ok := cache.Get("a"); ok {
		t.Fatal("zero TTL must not cache")
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	var cache *Cache[string, int]
	cache.Set("a", 1)
	cache.Invalidate("a")
	cache.InvalidateAll()
	if _, ok := cache.Get("a"); ok || cache.Len() != 0 {
		t.Fatal("nil cache should be empty")
	}
}
