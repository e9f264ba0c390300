// Package models provides data model definitions for the moniesync offline core.
package models

// DisplayCacheItem is a speculative record persisted independently of
// the in-memory query cache so it survives a restart while its queued
// write is still unconfirmed. Every item corresponds to at most one
// live QueuedRequest via TempID and is removed when that request is
// dequeued, whatever the replay outcome.
type DisplayCacheItem struct {
	TempID    string     `json:"temp_id"`
	CreatedAt int64      `json:"created_at"`
	Entity    EntityType `json:"entity_type"`

	// ScopeID narrows the item to a budget period (0 = unscoped).
	ScopeID int64 `json:"scope_id,omitempty"`

	Payload Record `json:"payload"`
}
