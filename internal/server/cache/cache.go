// Package cache provides an in-memory caching layer for the HTTP server.
// It uses patrickmn/go-cache for TTL-based caching. Catalog listings are
// cached for the full TTL; rendered views are keyed by generation so a newly
// published view is never shadowed by an older entry.
package cache

import (
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Key prefixes.
const (
	zonesKey     = "zones"
	buildingsKey = "buildings:"
	viewKey      = "view:"
)

// Cache wraps go-cache with key helpers for zonewatch responses.
type Cache struct {
	store *gocache.Cache
}

// New creates a new cache with the given TTL and cleanup interval.
// defaultTTL is the default expiration time for cache entries.
// cleanupInterval is how often expired items are removed from memory.
func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{
		store: gocache.New(defaultTTL, cleanupInterval),
	}
}

// ZonesKey is the key of the zone listing.
func ZonesKey() string { return zonesKey }

// BuildingsKey is the key of one zone's building listing.
func BuildingsKey(zoneKey string) string { return buildingsKey + zoneKey }

// ViewKey is the key of a rendered view for a generation and query.
func ViewKey(generation uint64, query string) string {
	return fmt.Sprintf("%s%d:%s", viewKey, generation, query)
}

// Get retrieves a value from the cache.
func (c *Cache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

// Set stores a value in the cache with default TTL.
func (c *Cache) Set(key string, value any) {
	c.store.Set(key, value, gocache.DefaultExpiration)
}

// SetWithTTL stores a value in the cache with custom TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.store.Set(key, value, ttl)
}

// Delete removes a value from the cache.
func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}

// InvalidateViews drops every rendered view older than generation.
func (c *Cache) InvalidateViews(generation uint64) int {
	removed := 0
	for key := range c.store.Items() {
		rest, ok := strings.CutPrefix(key, viewKey)
		if !ok {
			continue
		}
		var gen uint64
		if _, err := fmt.Sscanf(rest, "%d:", &gen); err != nil || gen < generation {
			c.store.Delete(key)
			removed++
		}
	}
	return removed
}

// Clear removes all items from the cache.
func (c *Cache) Clear() {
	c.store.Flush()
}

// ItemCount returns the number of items in the cache.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}

// Stats returns cache statistics.
type Stats struct {
	ItemCount int `json:"item_count"`
	Views     int `json:"views"`
}

// GetStats returns current cache statistics.
func (c *Cache) GetStats() Stats {
	items := c.store.Items()
	views := 0
	for key := range items {
		if strings.HasPrefix(key, viewKey) {
			views++
		}
	}
	return Stats{
		ItemCount: len(items),
		Views:     views,
	}
}
