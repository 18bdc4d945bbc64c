package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opdclinic/booking-api/pkg/circuitbreaker"
)

type redisCache struct {
	client *redis.Client
	cb     *circuitbreaker.CircuitBreaker
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
}

// NewRedis connects to Redis and verifies the connection before
// handing the cache back.
func NewRedis(cfg RedisConfig) (Cache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cb := circuitbreaker.New(circuitbreaker.Settings{
		Name:        "redis-cache",
		MaxFailures: 5,
		Timeout:     10 * time.Second,
	})

	return &redisCache{client: client, cb: cb}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	var val []byte
	err := c.cb.Execute(func() error {
		b, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			val = nil
			return nil
		}
		val = b
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	if val == nil {
		return nil, ErrMiss
	}
	return val, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.cb.Execute(func() error {
		return c.client.Set(ctx, key, value, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	err := c.cb.Execute(func() error {
		return c.client.Del(ctx, key).Err()
	})
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
