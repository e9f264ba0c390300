package store

import (
	"sync"
	"time"

	"github.com/moniehq/moniesync/internal/logging"
	"github.com/moniehq/moniesync/internal/models"
)

const displayKey = "display_cache"

// DisplayCache persists speculative placeholder records independently of
// the in-memory query cache so they survive a restart while their queued
// write is still unconfirmed. Items are keyed by temp id; each item
// corresponds to at most one live queue entry.
type DisplayCache struct {
	mu    sync.Mutex
	store *Store
	items []models.DisplayCacheItem
}

// OpenDisplayCache loads the persisted display cache from the store.
func OpenDisplayCache(s *Store) (*DisplayCache, error) {
	d := &DisplayCache{store: s}
	if err := s.getList(displayKey, &d.items); err != nil {
		return nil, err
	}
	return d, nil
}

// Put stores a placeholder record. The creation timestamp is assigned
// here if the caller left it zero.
func (d *DisplayCache) Put(item models.DisplayCacheItem) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if item.CreatedAt == 0 {
		item.CreatedAt = time.Now().UnixMilli()
	}
	d.items = append(d.items, item)
	d.persist()
}

// RemoveByTempID drops the placeholder with the given temp id.
func (d *DisplayCache) RemoveByTempID(tempID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.items[:0]
	for _, item := range d.items {
		if item.TempID != tempID {
			kept = append(kept, item)
		}
	}
	d.items = kept
	d.persist()
}

// ListByType returns placeholders of one entity type, optionally narrowed
// to a scope id (0 matches any scope).
func (d *DisplayCache) ListByType(entity models.EntityType, scopeID int64) []models.DisplayCacheItem {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []models.DisplayCacheItem
	for _, item := range d.items {
		if item.Entity != entity {
			continue
		}
		if scopeID != 0 && item.ScopeID != scopeID {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Items returns every stored placeholder.
func (d *DisplayCache) Items() []models.DisplayCacheItem {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]models.DisplayCacheItem, len(d.items))
	copy(out, d.items)
	return out
}

// Size returns the number of stored placeholders.
func (d *DisplayCache) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Clear empties the display cache.
func (d *DisplayCache) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.items = nil
	d.persist()
}

// persist is called with d.mu held.
func (d *DisplayCache) persist() {
	items := d.items
	if items == nil {
		items = []models.DisplayCacheItem{}
	}
	if err := d.store.putList(displayKey, items); err != nil {
		logging.Warn("display cache persistence failed, item durable in memory only", map[string]interface{}{
			"error": err.Error(),
			"size":  len(items),
		})
	}
}
