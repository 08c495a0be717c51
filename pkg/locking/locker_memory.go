package locking

import (
	"context"
	"sync"
	"time"
)

// LockerMemory is a process local LockerInterface
type LockerMemory struct {
	pool  sync.Pool
	locks sync.Map
}

// NewLockerMemory builds a new LockerMemory instance
func NewLockerMemory() *LockerMemory {
	locker := LockerMemory{}
	locker.pool = sync.Pool{
		New: func() interface{} {
			return make(chan struct{}, 1)
		},
	}

	return &locker
}

// Acquire blocks until the lock for key is free or ctx is done, a deadline ends in ErrNotObtained.
// The ttl is ignored, a memory lock lives until it is released.
func (l *LockerMemory) Acquire(ctx context.Context, key string, _ time.Duration) (LockInterface, error) {
	slot := l.getLock(key)

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrNotObtained
		}
		return nil, ctx.Err()
	}

	var once sync.Once
	return &LockMemory{
		key: key,
		release: func() {
			once.Do(func() { <-slot })
		},
	}, nil
}

func (l *LockerMemory) getLock(key string) chan struct{} {
	newLock := l.pool.Get()
	lock, loaded := l.locks.LoadOrStore(key, newLock)
	if loaded {
		l.pool.Put(newLock)
	}
	return lock.(chan struct{})
}

// LockMemory is a memory implementation of a LockInterface
type LockMemory struct {
	key     string
	release func()
}

// Key returns a key
func (l *LockMemory) Key() string {
	return l.key
}

// Release releases a LockMemory
func (l *LockMemory) Release(_ context.Context) error {
	l.release()
	return nil
}
