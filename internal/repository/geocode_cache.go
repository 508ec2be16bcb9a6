package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/occ-console-api/pkg/geo"
)

// GeocodeCache memoises address lookups.
type GeocodeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGeocodeCache constructs the cache. A nil client disables caching.
func NewGeocodeCache(client *redis.Client, ttl time.Duration) *GeocodeCache {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &GeocodeCache{client: client, ttl: ttl}
}

func geocodeKey(query string) string {
	return "occ:geocode:" + strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// Get returns the cached point for query, if any.
func (c *GeocodeCache) Get(ctx context.Context, query string) (geo.Point, bool, error) {
	if c == nil || c.client == nil {
		return geo.Point{}, false, nil
	}

	data, err := c.client.Get(ctx, geocodeKey(query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return geo.Point{}, false, nil
	}
	if err != nil {
		return geo.Point{}, false, err
	}

	var point geo.Point
	if err := json.Unmarshal(data, &point); err != nil {
		return geo.Point{}, false, nil
	}
	return point, true, nil
}

// Set stores point for query.
func (c *GeocodeCache) Set(ctx context.Context, query string, point geo.Point) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(point)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, geocodeKey(query), payload, c.ttl).Err()
}
