// Package cache provides the in-memory keyed query cache the offline
// core injects optimistic placeholders into. It stands in for whatever
// view-layer cache the UI reads from: entries are keyed lists of records,
// and invalidation empties everything so the next read refetches from
// the server.
package cache

import (
	"fmt"
	"strings"
	"sync"

	"github.com/moniehq/moniesync/internal/models"
)

// QueryCache is a goroutine-safe keyed store of record lists.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string][]models.Record
}

// New creates an empty QueryCache.
func New() *QueryCache {
	return &QueryCache{
		entries: make(map[string][]models.Record),
	}
}

// Key builds the composite lookup key for an entity family, optionally
// narrowed to a scope id: "transaction/7", "category/7", "budget_period".
func Key(entity models.EntityType, scopeID int64) string {
	if scopeID == 0 {
		return string(entity)
	}
	return fmt.Sprintf("%s/%d", entity, scopeID)
}

// Get returns the records stored under key.
func (c *QueryCache) Get(key string) ([]models.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	out := make([]models.Record, len(records))
	copy(out, records)
	return out, true
}

// Set replaces the records stored under key.
func (c *QueryCache) Set(key string, records []models.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = records
}

// UpdateMatching applies fn to every entry whose key equals prefix or
// starts with prefix followed by a separator, and returns the number of
// entries touched. Entries with filter-suffixed keys (e.g.
// "transaction/7?type=expense") are updated along with the base entry.
func (c *QueryCache) UpdateMatching(prefix string, fn func(records []models.Record) []models.Record) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	touched := 0
	for key, records := range c.entries {
		if !matches(key, prefix) {
			continue
		}
		c.entries[key] = fn(records)
		touched++
	}
	return touched
}

// InvalidateAll drops every cached entry, forcing a full refetch of
// every visible view against the server.
func (c *QueryCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]models.Record)
}

// Len returns the number of cached entries.
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func matches(key, prefix string) bool {
	if key == prefix {
		return true
	}
	return strings.HasPrefix(key, prefix+"?") || strings.HasPrefix(key, prefix+"/")
}
