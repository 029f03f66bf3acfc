// Package cache holds the landing-page cache. Rendered listing pages are
// stored under a per-page key with a fixed expiry; mutations never invalidate
// entries, so a reader may see a listing up to one TTL old. Clear is the only
// proactive invalidation path.
package cache

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// PageCache is a key-value store for rendered page bytes. Implementations
// must be safe for concurrent Get/Set/Clear.
type PageCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Clear()
}

// IndexKey builds the cache key for one page of the global listing.
func IndexKey(page int) string {
	return fmt.Sprintf("index:page=%d", page)
}

// TTLCache implements PageCache over an in-process expiring store.
type TTLCache struct {
	store *gocache.Cache
}

// NewTTLCache creates a TTLCache with the given default expiry.
func NewTTLCache(defaultTTL time.Duration) *TTLCache {
	return &TTLCache{store: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (c *TTLCache) Get(key string) ([]byte, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

func (c *TTLCache) Set(key string, value []byte, ttl time.Duration) {
	c.store.Set(key, value, ttl)
}

func (c *TTLCache) Clear() {
	c.store.Flush()
}

// Disabled is a PageCache that stores nothing. Handlers that should bypass
// caching get this instead of a nil check.
type Disabled struct{}

func (Disabled) Get(string) ([]byte, bool) { return nil, false }

func (Disabled) Set(string, []byte, time.Duration) {}

func (Disabled) Clear() {}
