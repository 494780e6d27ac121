package resolution

import (
	"sync"
	"time"

	"cosmos-backend/domain/core/valueobjects"
)

// Cache maps node IDs to resolved card mappings so the strategy chain runs
// at most once per node. A hit is trusted as-is; callers needing freshness
// (logout, user switch) must Clear explicitly.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	mapping   valueobjects.NodeCardMapping
	expiresAt time.Time
}

// CacheStats describes the cache contents
type CacheStats struct {
	Size int
	Keys []string
}

// NewCache creates a resolution cache. A non-positive ttl disables expiry;
// entries then live until Clear.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached mapping for a node ID, if present and unexpired
func (c *Cache) Get(nodeID string) (valueobjects.NodeCardMapping, bool) {
	c.mu.RLock()
	entry, ok := c.entries[nodeID]
	c.mu.RUnlock()

	if !ok {
		return valueobjects.NodeCardMapping{}, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, nodeID)
		c.mu.Unlock()
		return valueobjects.NodeCardMapping{}, false
	}
	return entry.mapping, true
}

// Set stores a mapping for a node ID, overwriting any previous entry
func (c *Cache) Set(nodeID string, mapping valueobjects.NodeCardMapping) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cacheEntry{mapping: mapping}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}
	c.entries[nodeID] = entry
}

// Clear drops every cached mapping
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// SetTTL changes the expiry applied to entries stored from now on
func (c *Cache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

// Stats returns the current size and keys of the cache
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return CacheStats{Size: len(c.entries), Keys: keys}
}
