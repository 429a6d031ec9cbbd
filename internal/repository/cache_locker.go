package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"TradeSim/pkg/cache"
	applogger "TradeSim/pkg/logger"
)

// CacheLocker builds an exclusive section on top of cache TryLock. The lock
// expires after ttl so a crashed holder cannot block a symbol forever. Each
// acquisition carries its own token, so a late release never frees a lock
// that has since passed to another holder.
type CacheLocker struct {
	cache   cache.Service
	ttl     time.Duration
	maxWait time.Duration
	poll    time.Duration
	l       *applogger.Logger
}

func NewCacheLocker(c cache.Service, ttl, maxWait time.Duration, l *applogger.Logger) *CacheLocker {
	if l == nil {
		l = applogger.Nop()
	}
	return &CacheLocker{cache: c, ttl: ttl, maxWait: maxWait, poll: 100 * time.Millisecond, l: l}
}

// Acquire blocks until the lock is held, ctx is done or maxWait elapses.
func (lk *CacheLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if lk.maxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, lk.maxWait)
		defer cancel()
	}

	token := uuid.NewString()
	ticker := time.NewTicker(lk.poll)
	defer ticker.Stop()
	for {
		ok, err := lk.cache.TryLock(ctx, key, token, lk.ttl)
		if err != nil {
			return nil, fmt.Errorf("try lock %s: %w", key, err)
		}
		if ok {
			return func() { lk.release(key, token) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (lk *CacheLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := lk.cache.Unlock(ctx, key, token); err != nil {
		lk.l.Warn("unlock failed", applogger.String("key", key), applogger.Error(err))
	}
}
