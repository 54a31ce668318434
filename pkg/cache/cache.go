// Package cache provides Redis-backed caching, generalized from the
// icmp-mon control plane's cache package to the multiple purposes §5
// calls for: dedup fingerprints, enrichment context, threat-intel
// records, and LLM rate-limit counters, each under its own key prefix.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "sentryline:"

// Cache is a thin Redis wrapper shared by every stage.
type Cache struct {
	client *redis.Client
}

// New opens a client against addr/db and verifies connectivity.
func New(addr string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: redis connection failed: %w", err)
	}

	return &Cache{client: client}, nil
}

func (c *Cache) Close() error { return c.client.Close() }

// Get retrieves a cached value, returning (nil, nil) on a cache miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set stores a value with the given TTL. ttl <= 0 means no expiry.
func (c *Cache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, keyPrefix+key, data, ttl).Err()
}

// GetJSON retrieves and unmarshals a cached JSON value.
func (c *Cache) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := c.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	return true, json.Unmarshal(data, v)
}

// SetJSON marshals and stores a JSON value with the given TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, keyPrefix+key).Err()
}

// SeenFingerprint implements the §4.2 dedup window as an atomic
// SetNX: the first caller within the window gets ok=true and owns the
// alert; later callers within the same window get ok=false.
func (c *Cache) SeenFingerprint(ctx context.Context, fingerprint string, window time.Duration) (firstSeen bool, err error) {
	key := keyPrefix + "dedup:" + fingerprint
	ok, err := c.client.SetNX(ctx, key, 1, window).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// EnrichmentKey namespaces context-collector cache entries by alert and kind.
func EnrichmentKey(alertID, contextType string) string {
	return "enrich:" + contextType + ":" + alertID
}

// ThreatIntelKey namespaces aggregator cache entries by IOC value and type.
func ThreatIntelKey(iocType, value string) string {
	return "ti:" + iocType + ":" + value
}

// RateLimitKey namespaces token-bucket counters for outbound LLM/TI calls.
func RateLimitKey(scope string) string {
	return "ratelimit:" + scope
}

// Incr increments a counter key, setting its expiry only when first created.
func (c *Cache) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	fullKey := keyPrefix + key
	n, err := c.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 && ttl > 0 {
		c.client.Expire(ctx, fullKey, ttl)
	}
	return n, nil
}
