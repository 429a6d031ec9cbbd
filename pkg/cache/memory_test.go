package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	type payload struct {
		Name  string
		Value float64
	}
	if err := c.Set(ctx, "k", payload{"a", 1.5}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got payload
	if err := c.Get(ctx, "k", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "a" || got.Value != 1.5 {
		t.Fatalf("unexpected value %+v", got)
	}

	if err := c.Get(ctx, "missing", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}

	_ = c.Delete(ctx, "k")
	if ok, _ := c.Exists(ctx, "k"); ok {
		t.Fatalf("key should be gone")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	_ = c.Set(ctx, "k", 1, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	var v int
	if err := c.Get(ctx, "k", &v); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired key to miss, got %v", err)
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(WithMemoryMaxSize(2))
	defer c.Close()

	_ = c.Set(ctx, "a", 1, time.Minute)
	time.Sleep(time.Millisecond)
	_ = c.Set(ctx, "b", 2, time.Minute)
	time.Sleep(time.Millisecond)
	var v int
	_ = c.Get(ctx, "a", &v)
	time.Sleep(time.Millisecond)
	_ = c.Set(ctx, "c", 3, time.Minute)

	if err := c.Get(ctx, "b", &v); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected b to be evicted, got %v", err)
	}
	if err := c.Get(ctx, "a", &v); err != nil || v != 1 {
		t.Fatalf("expected a to survive, got %v %d", err, v)
	}
}

func TestMemoryCacheTryLock(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	ok, err := c.TryLock(ctx, "lock", "a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first TryLock should succeed: %v %v", ok, err)
	}
	if ok, _ := c.TryLock(ctx, "lock", "b", time.Minute); ok {
		t.Fatalf("second TryLock should fail while held")
	}
	var v int
	if err := c.Get(ctx, "lock", &v); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("locks must not read as values")
	}
	_ = c.Unlock(ctx, "lock", "b")
	if ok, _ := c.TryLock(ctx, "lock", "b", time.Minute); ok {
		t.Fatalf("Unlock with a foreign token must not release the lock")
	}
	_ = c.Unlock(ctx, "lock", "a")
	if ok, _ := c.TryLock(ctx, "lock", "b", time.Minute); !ok {
		t.Fatalf("TryLock after Unlock should succeed")
	}

	if ok, _ := c.TryLock(ctx, "short", "a", time.Millisecond); !ok {
		t.Fatalf("TryLock short")
	}
	time.Sleep(5 * time.Millisecond)
	if ok, _ := c.TryLock(ctx, "short", "b", time.Minute); !ok {
		t.Fatalf("expired lock should be reacquirable")
	}
	_ = c.Unlock(ctx, "short", "a")
	if ok, _ := c.TryLock(ctx, "short", "c", time.Minute); ok {
		t.Fatalf("stale Unlock released the new holder's lock")
	}
}

func TestGenerateKey(t *testing.T) {
	if got := GenerateKey("bars", "AAPL", "2025"); got != "bars:AAPL:2025" {
		t.Fatalf("unexpected key %q", got)
	}
}
