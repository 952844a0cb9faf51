package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	analyticsKeyPrefix = KeyPrefix + "analytics:"

	// DefaultAnalyticsTTL bounds how stale a cached aggregate can get when
	// an invalidation is lost.
	DefaultAnalyticsTTL = 5 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

func analyticsKey(userID, kind string) string {
	return analyticsKeyPrefix + userID + ":" + kind
}

// GetAnalytics decodes the cached aggregate of kind for userID into dst.
// Returns ErrCacheMiss if nothing is cached.
func (c *Cache) GetAnalytics(ctx context.Context, userID, kind string, dst any) error {
	data, err := c.client.Get(ctx, analyticsKey(userID, kind)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		// Corrupted cache entry - treat as miss
		return ErrCacheMiss
	}
	return nil
}

// SetAnalytics stores an aggregate for userID.
func (c *Cache) SetAnalytics(ctx context.Context, userID, kind string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultAnalyticsTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal analytics: %w", err)
	}

	if err := c.client.Set(ctx, analyticsKey(userID, kind), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache analytics: %w", err)
	}
	return nil
}

// InvalidateAnalytics drops the cached aggregates of the given kinds.
func (c *Cache) InvalidateAnalytics(ctx context.Context, userID string, kinds ...string) error {
	if len(kinds) == 0 {
		return nil
	}

	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, analyticsKey(userID, kind))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate analytics: %w", err)
	}
	return nil
}
