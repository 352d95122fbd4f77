package cache

import (
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := NewLRU[string](4, time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("empty cache must miss")
	}
	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("got %q %v", v, ok)
	}
	c.Set("a", "2")
	if v, _ := c.Get("a"); v != "2" {
		t.Fatalf("set must overwrite, got %q", v)
	}
	if c.Size() != 1 {
		t.Fatalf("got size %d", c.Size())
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // refresh a
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b was least recently used and must be gone")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a was refreshed and must survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("c was just added")
	}
}

func TestExpiry(t *testing.T) {
	c := NewLRU[int](4, 10*time.Millisecond)
	c.Set("a", 1)
	time.Sleep(25 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expired entry must miss")
	}
}

func TestSweep(t *testing.T) {
	c := NewLRU[int](8, 10*time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(25 * time.Millisecond)
	c.Set("c", 3)

	if removed := c.Sweep(); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if c.Size() != 1 {
		t.Fatalf("got size %d", c.Size())
	}
}
