package menu

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/orderdeck/orderdeck/internal/localstore"
)

// CachePrefix is the device-store key prefix for menu entries. Logout
// clears everything under it.
const CachePrefix = "menu:"

// DefaultTTL is the freshness window for cached menus.
const DefaultTTL = 5 * time.Minute

// FetchFunc retrieves the authoritative menu for a restaurant.
type FetchFunc func(ctx context.Context, restaurantID string) (Menu, error)

// Cache is a read-through, stale-while-revalidate cache of menus keyed by
// restaurant id on top of the device store.
//
// The cache is a latency optimization only, never a correctness boundary:
// a fresh hit is served immediately, but a background refetch still runs
// and its result overwrites both the cache and the caller's state. A stale
// or missing entry is a miss and fetches inline. Every successful fetch
// overwrites the entry wholesale.
type Cache struct {
	store *localstore.Store
	fetch FetchFunc
	ttl   time.Duration
	now   func() time.Time
}

// NewCache creates a cache with the given TTL; ttl <= 0 uses DefaultTTL.
func NewCache(store *localstore.Store, fetch FetchFunc, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, fetch: fetch, ttl: ttl, now: time.Now}
}

// SetNow overrides the clock, for TTL tests.
func (c *Cache) SetNow(now func() time.Time) { c.now = now }

// Get returns the menu for restaurantID.
//
// Fresh cached entry: returned immediately; a background refetch runs
// unconditionally and delivers its result through onUpdate (which also
// fires for the inline path, so callers can treat it as their single
// render hook). Stale or absent entry: fetched inline.
//
// onUpdate may be nil. Background fetch failures are logged and dropped;
// the displayed state simply keeps the cached menu.
func (c *Cache) Get(ctx context.Context, restaurantID string, onUpdate func(Menu)) (Menu, error) {
	cached, ok := c.peek(restaurantID)
	if ok {
		// The revalidation must outlive the caller: a web request's
		// context is cancelled as soon as the handler returns, which
		// would abort the refetch and turn the contract into plain TTL
		// caching.
		bg := context.WithoutCancel(ctx)
		go func() {
			m, err := c.refresh(bg, restaurantID)
			if err != nil {
				slog.Debug("background menu refresh failed", "restaurant", restaurantID, "error", err)
				return
			}
			if onUpdate != nil {
				onUpdate(m)
			}
		}()
		return cached, nil
	}

	m, err := c.refresh(ctx, restaurantID)
	if err != nil {
		return Menu{}, err
	}
	if onUpdate != nil {
		onUpdate(m)
	}
	return m, nil
}

// peek returns the cached menu if it exists and is younger than the TTL.
// An expired entry is cleared and treated as a miss.
func (c *Cache) peek(restaurantID string) (Menu, bool) {
	var m Menu
	storedAt, err := c.store.Get(CachePrefix+restaurantID, &m)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			slog.Debug("menu cache read failed", "restaurant", restaurantID, "error", err)
		}
		return Menu{}, false
	}
	if c.now().Sub(storedAt) >= c.ttl {
		_ = c.store.Delete(CachePrefix + restaurantID)
		return Menu{}, false
	}
	return m, true
}

// refresh fetches the authoritative menu and unconditionally overwrites the
// cache entry.
func (c *Cache) refresh(ctx context.Context, restaurantID string) (Menu, error) {
	m, err := c.fetch(ctx, restaurantID)
	if err != nil {
		return Menu{}, err
	}
	if err := c.store.Put(CachePrefix+restaurantID, m); err != nil {
		slog.Debug("menu cache write failed", "restaurant", restaurantID, "error", err)
	}
	return m, nil
}
