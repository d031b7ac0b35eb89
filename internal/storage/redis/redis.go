package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"apparel-configurator/internal/pricing"
	rdb "apparel-configurator/pkg/redis"
)

// KV is the subset of the Redis client used here.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)
	KeyTTL(ctx context.Context, key string) (time.Duration, error)
}

type Storage struct {
	client KV
	ttl    time.Duration
	now    func() time.Time
}

func New(client KV, ttl time.Duration) *Storage {
	return &Storage{client: client, ttl: ttl, now: time.Now}
}

// GetMetafields returns the cached metafields for a product. ok is false on
// a cache miss.
func (s *Storage) GetMetafields(ctx context.Context, productID string) (fields []pricing.Metafield, ok bool, err error) {
	data, err := s.client.Get(ctx, buildMetafieldsKey(productID))
	if rdb.IsMiss(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get metafields: %w", err)
	}

	var entry CachedMetafields
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("unmarshal failure: %w", err)
	}
	return entry.Fields, true, nil
}

func (s *Storage) SetMetafields(ctx context.Context, productID string, fields []pricing.Metafield) error {
	data, err := json.Marshal(CachedMetafields{
		ProductID: productID,
		Fields:    fields,
		CachedAt:  s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal metafields: %w", err)
	}
	return s.client.Set(ctx, buildMetafieldsKey(productID), data, s.ttl)
}

func (s *Storage) DropMetafields(ctx context.Context, productID string) error {
	return s.client.Del(ctx, buildMetafieldsKey(productID))
}

// CheckRateLimit counts one hit for key in a fixed window and reports whether
// the limit has been exceeded.
func (s *Storage) CheckRateLimit(ctx context.Context, key, action string, limit int64, window time.Duration) (bool, error) {
	rk := buildRateLimitKey(key, action)

	count, err := s.client.Incr(ctx, rk)
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	// First hit opens the window.
	if count == 1 {
		if _, err := s.client.Expire(ctx, rk, window); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	if count <= limit {
		return false, nil
	}

	// A counter left without expiry would block the key for good.
	ttl, err := s.client.KeyTTL(ctx, rk)
	if err != nil {
		return true, fmt.Errorf("failed to read rate limit window: %w", err)
	}
	if ttl < 0 {
		if _, err := s.client.Expire(ctx, rk, window); err != nil {
			return true, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}
	return true, nil
}

func buildMetafieldsKey(productID string) string {
	return fmt.Sprintf("metafields:%s", productID)
}

func buildRateLimitKey(key, action string) string {
	return fmt.Sprintf("ratelimit:%s:%s", key, action)
}
