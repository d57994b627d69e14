package advisor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores generated advice by key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

const (
	cacheKeyPrefix  = "engagement:advice:"
	defaultCacheTTL = 24 * time.Hour
)

// CacheKey derives the cache key for a model, credential and prompt. Advice
// is only shared between requests made with the same credential, and the
// credential itself is never stored.
func CacheKey(model, credential, prompt string) string {
	cred := sha256.Sum256([]byte(credential))
	sum := sha256.Sum256([]byte(model + "\x00" + hex.EncodeToString(cred[:]) + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}

// RedisCache keeps advice in Redis with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a cache on client. A non-positive ttl means 24h.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached advice, if any.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, cacheKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("advice cache get: %w", err)
	}
	return val, true, nil
}

// Set stores advice under key.
func (c *RedisCache) Set(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, cacheKeyPrefix+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("advice cache set: %w", err)
	}
	return nil
}
