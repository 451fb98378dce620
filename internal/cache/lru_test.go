package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[int], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected 1, got %d %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss")
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("unexpected stats %d/%d", hits, misses)
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a was recently used and should remain")
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	clock.t = clock.t.Add(2 * time.Minute)
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Fatal("a should be expired")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("expected 1 expired entry left (b), got %d", removed)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatal("c should still be fresh")
	}
}

func TestLRUCache_DeleteAndClear(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("a should be deleted")
	}
	c.Clear()
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
	c.Set("d", 4)
	if v, ok := c.Get("d"); !ok || v != 4 {
		t.Fatal("cache should be usable after Clear")
	}
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Register(NewLRUCache[string](1, time.Second))
	m.Stop()
}

func TestManager_CleansRegisteredCaches(t *testing.T) {
	c, clock := newTestCache(10, time.Millisecond)
	c.Set("a", 1)
	clock.t = clock.t.Add(time.Second)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(5 * time.Millisecond)
	deadline := time.Now().Add(time.Second)
	for c.Size() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	m.Stop()
	if c.Size() != 0 {
		t.Fatal("expired entry should have been cleaned by the manager")
	}
}
