package portalcache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb), mr
}

func TestCacheSetGetRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "https://example.com/listing/1"); ok {
		t.Fatal("expected miss before Set")
	}

	if err := cache.Set(ctx, "https://example.com/listing/1", "<html>listing</html>"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	html, ok := cache.Get(ctx, "https://example.com/listing/1")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if html != "<html>listing</html>" {
		t.Fatalf("got %q", html)
	}
}

func TestCacheURLHashIsCaseAndWhitespaceInsensitive(t *testing.T) {
	a := URLHash("  HTTPS://Example.com/Listing  ")
	b := URLHash("https://example.com/listing")
	if a != b {
		t.Fatalf("expected equal hashes, got %q vs %q", a, b)
	}
}

func TestCacheGetExpired(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "https://example.com/expiring", "<html/>"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(defaultTTL + 1)

	if _, ok := cache.Get(ctx, "https://example.com/expiring"); ok {
		t.Fatal("expected miss after TTL expiry")
	}
}

type stubGISAdapter struct {
	calls int
	resp  map[string]interface{}
	err   error
}

func (s *stubGISAdapter) Get(ctx context.Context, baseURL string, params map[string]string) (map[string]interface{}, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func TestCachingGISAdapterCachesSuccessfulResponses(t *testing.T) {
	cache, _ := newTestCache(t)
	inner := &stubGISAdapter{resp: map[string]interface{}{"zestimate": 450000.0}}
	dec := NewCachingGISAdapter(inner, cache)
	ctx := context.Background()

	params := map[string]string{"b": "2", "a": "1"}
	first, err := dec.Get(ctx, "https://gis.example.com/lookup", params)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first["zestimate"] != 450000.0 {
		t.Fatalf("unexpected response: %v", first)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}

	// Reordered params must hit the same cache key.
	second, err := dec.Get(ctx, "https://gis.example.com/lookup", map[string]string{"a": "1", "b": "2"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if second["zestimate"] != 450000.0 {
		t.Fatalf("unexpected cached response: %v", second)
	}
	if inner.calls != 1 {
		t.Fatalf("expected cache hit to avoid a second inner call, got %d calls", inner.calls)
	}
}

func TestCachingGISAdapterDoesNotCacheErrors(t *testing.T) {
	cache, _ := newTestCache(t)
	inner := &stubGISAdapter{err: errors.New("upstream unavailable")}
	dec := NewCachingGISAdapter(inner, cache)
	ctx := context.Background()

	if _, err := dec.Get(ctx, "https://gis.example.com/lookup", nil); err == nil {
		t.Fatal("expected error to propagate")
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}

	inner.err = nil
	inner.resp = map[string]interface{}{"ok": true}
	if _, err := dec.Get(ctx, "https://gis.example.com/lookup", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected second attempt to re-hit inner adapter since the error wasn't cached, got %d calls", inner.calls)
	}
}
