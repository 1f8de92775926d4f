// Package lock provides per-player locking so that one player's game
// operations run one at a time.
package lock

import (
	"context"
	"sync"
	"time"
)

// playerMutex wraps a mutex with the number of holders and waiters.
type playerMutex struct {
	mu       sync.Mutex
	refCount int
}

// PlayerLock hands out one mutex per player ID.
type PlayerLock struct {
	locks sync.Map // map[string]*playerMutex
	pool  sync.Pool
}

// NewPlayerLock creates a new PlayerLock instance.
func NewPlayerLock() *PlayerLock {
	return &PlayerLock{
		pool: sync.Pool{
			New: func() any {
				return &playerMutex{}
			},
		},
	}
}

// getLock retrieves or creates the mutex for the given player.
func (pl *PlayerLock) getLock(player string) *playerMutex {
	if v, ok := pl.locks.Load(player); ok {
		return v.(*playerMutex)
	}

	newLock := pl.pool.Get().(*playerMutex)
	newLock.refCount = 0

	// Another goroutine may have stored a lock first
	actual, loaded := pl.locks.LoadOrStore(player, newLock)
	if loaded {
		pl.pool.Put(newLock)
	}
	return actual.(*playerMutex)
}

// unlock releases the lock for a player.
func (pl *PlayerLock) unlock(player string) {
	if v, ok := pl.locks.Load(player); ok {
		lock := v.(*playerMutex)
		lock.refCount--
		lock.mu.Unlock()
	}
}

// lockWithTimeout waits up to timeout, or until ctx is done, for the lock.
// It reports whether the lock was acquired.
func (pl *PlayerLock) lockWithTimeout(ctx context.Context, player string, timeout time.Duration) bool {
	lock := pl.getLock(player)

	done := make(chan struct{})
	go func() {
		lock.mu.Lock()
		close(done)
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-done:
		lock.refCount++
		return true
	case <-timeoutCtx.Done():
		// The waiting goroutine still acquires the mutex; hand it back.
		go func() {
			<-done
			lock.mu.Unlock()
		}()
		return false
	}
}

// WithLockContext runs fn while holding the player's lock. It returns
// ErrLockTimeout when the lock is not acquired within timeout, and the
// context error when ctx ends first.
func (pl *PlayerLock) WithLockContext(ctx context.Context, player string, timeout time.Duration, fn func() error) error {
	if !pl.lockWithTimeout(ctx, player, timeout) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrLockTimeout
	}
	defer pl.unlock(player)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fn()
	}
}
