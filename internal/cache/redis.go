// Package cache provides a tiny Redis client wrapper for content-addressed
// inpainting results. The pipeline is deterministic, so a result is keyed by
// a digest of the raw inputs that produced it.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a Redis client for inpainting result storage
type Cache struct {
	client *redis.Client
}

// New creates a new Cache instance connected to the specified Redis address
// If addr is empty, defaults to localhost:6379
func New(addr string) (*Cache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password by default
		DB:       0,  // Default DB
	})

	// Test connection
	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &Cache{client: client}, nil
}

// Key derives the cache key for one invocation from everything that
// determines its output: the raw image bytes, the raw mask bytes, the
// inversion flag and the model resolution.
func Key(imageData, maskData []byte, invert bool, resolution int) string {
	h := sha256.New()
	h.Write(imageData)
	h.Write(maskData)
	fmt.Fprintf(h, "|invert=%v|resolution=%d", invert, resolution)
	return "inpaint:" + hex.EncodeToString(h.Sum(nil))
}

// GetResult retrieves a cached result image. The second return value reports
// whether the key was present.
func (c *Cache) GetResult(ctx context.Context, key string) ([]byte, bool, error) {
	if c.client == nil {
		return nil, false, fmt.Errorf("cache client is nil")
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil // Key does not exist
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached result: %w", err)
	}

	return data, true, nil
}

// SetResult stores a result image with the specified TTL
func (c *Cache) SetResult(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if c.client == nil {
		return fmt.Errorf("cache client is nil")
	}

	err := c.client.Set(ctx, key, data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache result: %w", err)
	}

	return nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
