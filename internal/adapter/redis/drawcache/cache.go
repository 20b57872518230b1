// Package drawcache caches the latest draw per region in Redis so hot
// settlement paths skip the database.
package drawcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lottobill/lottobill-backend/internal/domain"
)

// DefaultTTL bounds staleness when a draw row is corrected directly in the
// database.
const DefaultTTL = 12 * time.Hour

// Cache stores the latest draw per region as a JSON value.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a draw cache. A zero ttl falls back to DefaultTTL.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func key(region string) string {
	return "draw:latest:" + region
}

// GetLatest returns the cached draw for the region, or domain.ErrNotFound on
// a cache miss.
func (c *Cache) GetLatest(ctx context.Context, region string) (*domain.DrawResult, error) {
	data, err := c.client.Get(ctx, key(region)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("draw cache %s: %w", region, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("draw cache get %s: %w", region, err)
	}

	var d domain.DrawResult
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal cached draw %s: %w", region, err)
	}
	return &d, nil
}

// SetLatest stores the draw under its region key.
func (c *Cache) SetLatest(ctx context.Context, d *domain.DrawResult) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal draw: %w", err)
	}
	if err := c.client.Set(ctx, key(d.Region), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("draw cache set %s: %w", d.Region, err)
	}
	return nil
}
