package ratesource

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions addresses the Redis instance backing a RedisCache.
type RedisOptions struct {
	Address  string `mapstructure:"address" yaml:"address"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

// RedisCache shares reference rates between processes through Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	if opts.Address == "" {
		return nil, fmt.Errorf("redis cache requires an address")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", opts.Address, err)
	}
	return &RedisCache{client: client}, nil
}

// Get returns the cached rate. Misses and Redis errors are both reported as misses.
func (r *RedisCache) Get(ctx context.Context, key string) (float64, bool) {
	rate, err := r.client.Get(ctx, key).Float64()
	if err != nil {
		return 0, false
	}
	return rate, true
}

// Set stores a rate for ttl.
func (r *RedisCache) Set(ctx context.Context, key string, rate float64, ttl time.Duration) error {
	return r.client.Set(ctx, key, rate, ttl).Err()
}

// Close releases the Redis connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
