package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is a thin wrapper used for the metafield cache and request counters.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a new Redis client
func New(addr, password string, db int, ttl time.Duration) *Client {
	return &Client{
		client: redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     password,
			DB:           db,
			PoolSize:     100,
			MinIdleConns: 10,
		}),
		ttl: ttl,
	}
}

// TTL is the default expiry for cached entries.
func (c *Client) TTL() time.Duration {
	return c.ttl
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get retrieves a key's value. A missing key reports an error for which
// IsMiss is true.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	return c.client.Get(ctx, key).Bytes()
}

// Set sets a key's value with TTL
func (c *Client) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Del deletes a key
func (c *Client) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Incr increments the key's value by 1. Returns the new value and any error
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}

// Expire sets a key's time to live (TTL)
func (c *Client) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	return c.client.Expire(ctx, key, expiration).Result()
}

// KeyTTL returns the remaining time to live of key. It is negative when the
// key has no expiry or does not exist.
func (c *Client) KeyTTL(ctx context.Context, key string) (time.Duration, error) {
	return c.client.TTL(ctx, key).Result()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}
