package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/cache/v8"
	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"
)

// RecipientCacheInterface caches lists of user ids
type RecipientCacheInterface interface {
	Add(ctx context.Context, key string, recipients []string) error
	Invalidate(ctx context.Context, key string) error
	Get(ctx context.Context, key string) ([]string, error)
}

// RecipientCacheRedis shares cached recipients between server instances
type RecipientCacheRedis struct {
	Cache *cache.Cache
	TTL   time.Duration
}

// NewRecipientCacheRedis initializes a new RecipientCacheRedis
func NewRecipientCacheRedis(redisClient *redis.Client, ttl time.Duration) *RecipientCacheRedis {
	redisCache := cache.New(&cache.Options{
		Redis: redisClient,
	})

	return &RecipientCacheRedis{
		Cache: redisCache,
		TTL:   ttl,
	}
}

// Add stores recipients under key
func (c *RecipientCacheRedis) Add(ctx context.Context, key string, recipients []string) error {
	return c.Cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: recipients,
		TTL:   c.TTL,
	})
}

// Invalidate removes key
func (c *RecipientCacheRedis) Invalidate(ctx context.Context, key string) error {
	err := c.Cache.Delete(ctx, key)
	if err == cache.ErrCacheMiss {
		return nil
	}
	return err
}

// Get retrieves the recipients stored under key
func (c *RecipientCacheRedis) Get(ctx context.Context, key string) ([]string, error) {
	var result []string
	err := c.Cache.Get(ctx, key, &result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

type recipientCacheEntry struct {
	recipients []string
	expires    time.Time
}

// RecipientCacheMemory caches recipients inside the process
type RecipientCacheMemory struct {
	Cache *lru.Cache
	TTL   time.Duration
}

// NewRecipientCacheMemory initializes a new RecipientCacheMemory
func NewRecipientCacheMemory(size int, ttl time.Duration) (*RecipientCacheMemory, error) {
	lruCache, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	return &RecipientCacheMemory{
		Cache: lruCache,
		TTL:   ttl,
	}, nil
}

// Add stores a copy of recipients under key
func (c *RecipientCacheMemory) Add(_ context.Context, key string, recipients []string) error {
	stored := make([]string, len(recipients))
	copy(stored, recipients)

	_ = c.Cache.Add(key, &recipientCacheEntry{recipients: stored, expires: time.Now().Add(c.TTL)})
	return nil
}

// Invalidate removes key
func (c *RecipientCacheMemory) Invalidate(_ context.Context, key string) error {
	c.Cache.Remove(key)
	return nil
}

// Get retrieves the recipients stored under key unless they expired
func (c *RecipientCacheMemory) Get(_ context.Context, key string) ([]string, error) {
	result, ok := c.Cache.Get(key)
	if !ok {
		return nil, fmt.Errorf("could not find key %s in recipient cache", key)
	}

	entry, ok := result.(*recipientCacheEntry)
	if !ok {
		return nil, fmt.Errorf("cache entry was not a recipient cache entry")
	}

	if c.TTL > 0 && time.Now().After(entry.expires) {
		c.Cache.Remove(key)
		return nil, fmt.Errorf("recipient cache entry %s expired", key)
	}

	recipients := make([]string, len(entry.recipients))
	copy(recipients, entry.recipients)
	return recipients, nil
}
