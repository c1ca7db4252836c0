package portalcache

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/propresearch/agentic-research-core/pkg/adapters"
)

// CachingGISAdapter wraps a GISAdapter with the Redis-backed portal cache:
// the RapidAPI-backed portal lookups (us_real_estate, redfin, rentcast,
// walk_score) hit the same handful of listing URLs across properties and
// jobs, so a 24h cache meaningfully cuts both latency and rate-limit burn.
type CachingGISAdapter struct {
	Inner adapters.GISAdapter
	Cache *Cache
}

// NewCachingGISAdapter decorates inner with cache.
func NewCachingGISAdapter(inner adapters.GISAdapter, cache *Cache) *CachingGISAdapter {
	return &CachingGISAdapter{Inner: inner, Cache: cache}
}

func (c *CachingGISAdapter) Get(ctx context.Context, baseURL string, params map[string]string) (map[string]interface{}, error) {
	key := cacheKey(baseURL, params)
	if cached, ok := c.Cache.Get(ctx, key); ok {
		var out map[string]interface{}
		if err := json.Unmarshal([]byte(cached), &out); err == nil {
			return out, nil
		}
	}

	out, err := c.Inner.Get(ctx, baseURL, params)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(out); err == nil {
		_ = c.Cache.Set(ctx, key, string(raw))
	}
	return out, nil
}

// cacheKey canonicalizes baseURL + params into a stable URL-shaped string so
// identical queries with differently ordered params still hash to the same
// address.
func cacheKey(baseURL string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		values.Set(k, params[k])
	}
	if len(values) == 0 {
		return baseURL
	}
	return baseURL + "?" + strings.ReplaceAll(values.Encode(), "+", "%20")
}
