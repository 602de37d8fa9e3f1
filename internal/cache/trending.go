// Package cache holds short-lived Redis caches for read-heavy discovery
// endpoints.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/discovery/internal/domain"
)

const trendingKeyPrefix = "discovery:trending:"

// TrendingCache stores computed trending leaderboards per (limit, days)
// window. A zero TTL disables it: Get always misses and Set is a no-op.
type TrendingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTrendingCache creates a Redis-backed trending cache.
func NewTrendingCache(client *redis.Client, ttl time.Duration) *TrendingCache {
	return &TrendingCache{
		client: client,
		ttl:    ttl,
	}
}

func trendingKey(limit, days int) string {
	return fmt.Sprintf("%s%d:%d", trendingKeyPrefix, limit, days)
}

// Enabled reports whether the cache stores anything.
func (c *TrendingCache) Enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Get returns the cached leaderboard. hit is false on a miss.
func (c *TrendingCache) Get(ctx context.Context, limit, days int) (entries []domain.TrendingEntry, hit bool, err error) {
	if !c.Enabled() {
		return nil, false, nil
	}

	data, err := c.client.Get(ctx, trendingKey(limit, days)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get trending: %w", err)
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, fmt.Errorf("unmarshal trending: %w", err)
	}
	return entries, true, nil
}

// Set stores a leaderboard for the configured TTL.
func (c *TrendingCache) Set(ctx context.Context, limit, days int, entries []domain.TrendingEntry) error {
	if !c.Enabled() {
		return nil
	}
	if entries == nil {
		entries = []domain.TrendingEntry{}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal trending: %w", err)
	}

	if err := c.client.Set(ctx, trendingKey(limit, days), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set trending: %w", err)
	}
	return nil
}
