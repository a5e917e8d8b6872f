package cache

import (
	"testing"
	"time"
)

func TestLRUEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3) // evicts "a"

	if _, ok := c.Get("a"); ok {
		t.Fatal("oldest entry should have been evicted")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Fatalf("Get(b) = %d/%v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUTTL(t *testing.T) {
	c := NewLRUCache[string](10, 10*time.Millisecond)
	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry should not be returned")
	}
	c.Set("x", "y")
	time.Sleep(20 * time.Millisecond)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", n)
	}
}

func TestLRUDeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("spending:u1:2025-06", 1)
	c.Set("cashflow:u1:2025", 2)
	c.Set("spending:u2:2025-06", 3)

	if n := c.DeletePrefix("spending:u1:"); n != 1 {
		t.Fatalf("DeletePrefix removed %d, want 1", n)
	}
	if _, ok := c.Get("spending:u1:2025-06"); ok {
		t.Fatal("prefixed entry should be gone")
	}
	if _, ok := c.Get("spending:u2:2025-06"); !ok {
		t.Fatal("other user's entry should survive")
	}
}
