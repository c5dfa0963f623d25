// Package cache holds the redis-backed key/value helpers: JSON document
// caching, token revocation and fixed-window hit counters.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// JSONCache stores values as JSON strings under plain keys.
type JSONCache struct {
	rdb *redis.Client
}

func NewJSONCache(rdb *redis.Client) *JSONCache {
	return &JSONCache{rdb: rdb}
}

// Get decodes the value under key into dst. It reports false on a miss.
func (c *JSONCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *JSONCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

func (c *JSONCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// TokenRevocations records revoked token ids until the token would have expired anyway.
type TokenRevocations struct {
	rdb *redis.Client
}

func NewTokenRevocations(rdb *redis.Client) *TokenRevocations {
	return &TokenRevocations{rdb: rdb}
}

func revokedKey(jti string) string { return "revoked_token:" + jti }

func (t *TokenRevocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return t.rdb.Set(ctx, revokedKey(jti), "1", ttl).Err()
}

func (t *TokenRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := t.rdb.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// WindowCounter counts hits per key in a fixed window that starts at the first hit.
type WindowCounter struct {
	rdb *redis.Client
}

func NewWindowCounter(rdb *redis.Client) *WindowCounter {
	return &WindowCounter{rdb: rdb}
}

func (w *WindowCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := w.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
