package locking

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-redis/redis/v8"
)

// LockerRedis is a LockerInterface shared by every server process connected to the same Redis
type LockerRedis struct {
	client *redislock.Client
	// Prefix namespaces the keys of this service inside a shared Redis
	Prefix string
	// Wait bounds how long Acquire retries a held key
	Wait    time.Duration
	Backoff time.Duration
}

// NewLockerRedis creates a locker that waits up to ten seconds for a key
func NewLockerRedis(redisClient *redis.Client) *LockerRedis {
	return &LockerRedis{
		client:  redislock.New(redisClient),
		Prefix:  "lock:",
		Wait:    10 * time.Second,
		Backoff: 50 * time.Millisecond,
	}
}

// Acquire obtains key, retrying until Wait elapsed or ctx is done. The lock expires after ttl
// if the holder dies before releasing it.
func (l *LockerRedis) Acquire(ctx context.Context, key string, ttl time.Duration) (LockInterface, error) {
	ctx, cancel := context.WithTimeout(ctx, l.Wait)
	defer cancel()

	held, err := l.client.Obtain(ctx, l.Prefix+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.Backoff),
	})
	if err == redislock.ErrNotObtained {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}

	return &LockRedis{key: key, held: held}, nil
}

// LockRedis is a lock held in Redis
type LockRedis struct {
	key  string
	held *redislock.Lock
}

// Key returns the key without the prefix
func (l *LockRedis) Key() string {
	return l.key
}

// Release gives the key back. A lock that already expired is not an error.
func (l *LockRedis) Release(ctx context.Context) error {
	err := l.held.Release(ctx)
	if err == redislock.ErrLockNotHeld {
		return nil
	}
	return err
}
