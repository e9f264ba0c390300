// Package models provides data model definitions for the moniesync offline core.
package models

import "encoding/json"

// QueuedRequest is a pending mutation awaiting network availability.
// The embedded descriptor is everything needed to replay the call
// verbatim; entries are append-only and never mutated after insertion.
type QueuedRequest struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`

	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Body    json.RawMessage   `json:"body,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`

	// Description is shown to the user in sync failure reports.
	Description string `json:"description"`

	// Optimistic links the request to its speculative UI artifact,
	// absent when the applier did not recognize the write.
	Optimistic *OptimisticData `json:"optimistic,omitempty"`

	// Context captures the session scope at enqueue time. It is used
	// for informational mismatch detection only; the server remains
	// the authorization gate.
	Context *RequestContext `json:"context,omitempty"`
}

// OptimisticData binds a QueuedRequest to its speculative placeholder.
type OptimisticData struct {
	CacheKey string `json:"cache_key"`
	TempID   string `json:"temp_id"`
	Payload  Record `json:"payload"`
}

// RequestContext tags a queued request with the workspace and account
// it was issued under.
type RequestContext struct {
	WorkspaceID int64 `json:"workspace_id,omitempty"`
	AccountID   int64 `json:"account_id,omitempty"`
}

// Matches reports whether two contexts agree. A nil context matches
// everything.
func (c *RequestContext) Matches(other *RequestContext) bool {
	if c == nil || other == nil {
		return true
	}
	return c.WorkspaceID == other.WorkspaceID && c.AccountID == other.AccountID
}
