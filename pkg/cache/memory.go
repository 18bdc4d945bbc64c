package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type memoryCache struct {
	store *gocache.Cache
}

// NewMemory returns a single-process cache. Entries carry their own
// TTL; the janitor sweeps expired ones every cleanupInterval.
func NewMemory(cleanupInterval time.Duration) Cache {
	return &memoryCache{
		store: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	val, found := c.store.Get(key)
	if !found {
		return nil, ErrMiss
	}
	return val.([]byte), nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.store.Set(key, value, ttl)
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

func (c *memoryCache) Close() error {
	return nil
}
