// Package portalcache implements a content-hashed raw-HTML cache: a
// 24h-TTL cache over fetched listing/portal pages, keyed on
// sha256(lower(trim(url))), backed by Redis.
package portalcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

// Cache is the Redis-backed portal HTML cache.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New builds a Cache over an existing Redis client.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb, ttl: defaultTTL}
}

// URLHash returns the content-address key for a portal URL.
func URLHash(url string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(url))))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached HTML for url, or ok=false on a miss or expiry.
func (c *Cache) Get(ctx context.Context, url string) (html string, ok bool) {
	val, err := c.rdb.Get(ctx, "portalcache:"+URLHash(url)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores html for url with the fixed TTL.
func (c *Cache) Set(ctx context.Context, url, html string) error {
	return c.rdb.Set(ctx, "portalcache:"+URLHash(url), html, c.ttl).Err()
}
