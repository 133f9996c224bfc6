// Package cache holds the optional Redis existence cache for short codes.
// Only the immutable fact that a code is taken is cached; mappings are never
// deleted, so a cached entry can never go stale.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tinylink/tinylink/internal/config"
)

// Cache defines the key operations the existence cache needs.
type Cache interface {
	// Set stores a value in the cache with a TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Exists checks if a key exists in the cache.
	Exists(ctx context.Context, key string) (bool, error)

	// Ping checks if the cache is healthy.
	Ping(ctx context.Context) error

	// Close closes the cache connection.
	Close() error
}

// RedisCache implements Cache using Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis server at cfg.URL (redis:// or rediss://).
func NewRedisCache(ctx context.Context, cfg config.RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Set stores a value in the cache with a TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// Exists checks if a key exists in the cache.
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists check failed: %w", err)
	}
	return n > 0, nil
}

// Ping checks if the cache is healthy.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the cache connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client.
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// CodeCacher records and answers "is this short code taken".
type CodeCacher interface {
	MarkTaken(ctx context.Context, shortCode string) error
	IsTaken(ctx context.Context, shortCode string) (bool, error)
	Ping(ctx context.Context) error
}

var _ CodeCacher = (*CodeCache)(nil)

// CodeCache stores taken short codes under a key prefix.
type CodeCache struct {
	cache     Cache
	keyPrefix string
	ttl       time.Duration
}

// NewCodeCache creates a CodeCache. Empty prefix and zero TTL get defaults.
func NewCodeCache(c Cache, keyPrefix string, ttl time.Duration) *CodeCache {
	if keyPrefix == "" {
		keyPrefix = "tinylink:code:"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CodeCache{cache: c, keyPrefix: keyPrefix, ttl: ttl}
}

// MarkTaken records shortCode as in use.
func (c *CodeCache) MarkTaken(ctx context.Context, shortCode string) error {
	return c.cache.Set(ctx, c.key(shortCode), []byte("1"), c.ttl)
}

// IsTaken reports whether shortCode was recorded as in use.
// false means unknown, not free.
func (c *CodeCache) IsTaken(ctx context.Context, shortCode string) (bool, error) {
	return c.cache.Exists(ctx, c.key(shortCode))
}

// Ping checks if the cache is healthy.
func (c *CodeCache) Ping(ctx context.Context) error {
	return c.cache.Ping(ctx)
}

func (c *CodeCache) key(shortCode string) string {
	return c.keyPrefix + shortCode
}
