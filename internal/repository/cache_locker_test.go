package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"TradeSim/pkg/cache"
)

func TestCacheLockerSerializes(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	lk := NewCacheLocker(mem, time.Minute, 5*time.Second, nil)
	lk.poll = time.Millisecond

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := lk.Acquire(context.Background(), "policy-lock:AAPL")
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Fatalf("%d holders at once", maxInside)
	}
}

func TestCacheLockerHonoursContext(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	lk := NewCacheLocker(mem, time.Minute, 0, nil)
	lk.poll = time.Millisecond

	release, err := lk.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := lk.Acquire(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}

	if other, err := lk.Acquire(context.Background(), "other"); err != nil {
		t.Fatalf("independent keys must not block: %v", err)
	} else {
		other()
	}
}

func TestCacheLockerStaleReleaseKeepsNewHolder(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	lk := NewCacheLocker(mem, 5*time.Millisecond, 0, nil)
	lk.poll = time.Millisecond

	stale, err := lk.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	lk.ttl = time.Minute
	current, err := lk.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("Acquire after expiry: %v", err)
	}
	defer current()
	stale()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := lk.Acquire(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("stale release freed the current holder's lock: %v", err)
	}
}
