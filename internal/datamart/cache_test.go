package datamart

import (
	"testing"
	"time"
)

func TestCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewCache(10 * time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", []byte("alpha"))
	now = now.Add(5 * time.Minute)
	c.Set("b", []byte("beta"))

	if got, ok := c.Get("a"); !ok || string(got) != "alpha" {
		t.Fatalf("Get(a) = %q, %v; want alpha, true", got, ok)
	}

	now = now.Add(6 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) returned an expired entry")
	}
	if got, ok := c.Get("b"); !ok || string(got) != "beta" {
		t.Errorf("Get(b) = %q, %v; want beta, true", got, ok)
	}
	if got := c.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1 after flush", got)
	}
}

func TestCacheDisabled(t *testing.T) {
	c := NewCache(-1)
	c.Set("a", []byte("alpha"))
	if _, ok := c.Get("a"); ok {
		t.Error("disabled cache returned an entry")
	}
}
