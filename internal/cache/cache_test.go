package cache

import (
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := New[string](true)
	c.Set("k", "v", time.Minute)

	v, ok := c.Get("k")
	if !ok || v != "v" {
		t.Fatalf("Get = %q, %v; want v, true", v, ok)
	}
}

func TestCacheMiss(t *testing.T) {
	c := New[string](true)
	if _, ok := c.Get("absent"); ok {
		t.Fatal("hit on absent key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New[int](true)
	c.Set("k", 42, 10*time.Millisecond)

	if _, ok := c.Get("k"); !ok {
		t.Fatal("fresh entry missed")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry served")
	}
}

func TestCacheDisabledIsNoop(t *testing.T) {
	c := New[string](false)
	c.Set("k", "v", time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("disabled cache returned a value")
	}
}

func TestCacheStats(t *testing.T) {
	c := New[string](true)
	c.Set("fresh", "v", time.Minute)
	c.Set("stale", "v", -time.Minute)

	stats := c.Stats()
	if stats["total_keys"] != 2 {
		t.Errorf("total_keys = %v, want 2", stats["total_keys"])
	}
	if stats["active_keys"] != 1 {
		t.Errorf("active_keys = %v, want 1", stats["active_keys"])
	}
	if stats["expired_keys"] != 1 {
		t.Errorf("expired_keys = %v, want 1", stats["expired_keys"])
	}
}

func TestCacheEvict(t *testing.T) {
	c := New[string](true)
	c.Set("stale", "v", -time.Minute)
	c.Set("fresh", "v", time.Minute)

	c.evict()

	stats := c.Stats()
	if stats["total_keys"] != 1 {
		t.Fatalf("total_keys after evict = %v, want 1", stats["total_keys"])
	}
}
