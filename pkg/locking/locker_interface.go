package locking

import (
	"context"
	"errors"
	"time"
)

// ErrNotObtained is returned when a key stayed locked for the whole wait
var ErrNotObtained = errors.New("lock not obtained")

// LockerInterface hands out exclusive locks per key, e.g. "attendance:<userID>"
type LockerInterface interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (LockInterface, error)
}

// LockInterface is a held lock. Release must be called exactly once the critical section is over.
type LockInterface interface {
	Key() string
	Release(ctx context.Context) error
}
