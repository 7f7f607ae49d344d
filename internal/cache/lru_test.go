package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU[int](3, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("got %d, %v; want 1, true", v, ok)
	}

	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Fatalf("overwrite lost: got %d", v)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d, want 1", c.Size())
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now more recent than b
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should have survived")
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[int](10, time.Millisecond)
	c.Set("a", 1)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expired entry still served")
	}
}

func TestLRUDelete(t *testing.T) {
	c := NewLRU[string](10, time.Minute)
	c.Set("a", "x")
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("deleted entry still served")
	}
	c.Delete("never-existed")
}

func TestLRUCleanExpired(t *testing.T) {
	c := NewLRU[int](10, time.Millisecond)
	for i := 0; i < 4; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	time.Sleep(5 * time.Millisecond)
	c.Set("fresh", 99)

	if n := c.CleanExpired(); n != 4 {
		t.Fatalf("cleaned %d, want 4", n)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d, want 1", c.Size())
	}
}
