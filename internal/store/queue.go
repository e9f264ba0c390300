package store

import (
	"sync"
	"time"

	"github.com/moniehq/moniesync/internal/ident"
	"github.com/moniehq/moniesync/internal/logging"
	"github.com/moniehq/moniesync/internal/models"
)

const queueKey = "sync_queue"

// Queue is the durable FIFO of pending mutations. The in-memory slice is
// authoritative for the session; every change is written through to the
// store, and a failed write degrades that entry to in-memory durability
// with a logged warning instead of rejecting the operation.
type Queue struct {
	mu    sync.Mutex
	store *Store
	items []models.QueuedRequest
}

// OpenQueue loads the persisted queue from the store.
func OpenQueue(s *Store) (*Queue, error) {
	q := &Queue{store: s}
	if err := s.getList(queueKey, &q.items); err != nil {
		return nil, err
	}
	return q, nil
}

// Enqueue assigns an id and creation timestamp to req, appends it, and
// returns the id. It never rejects.
func (q *Queue) Enqueue(req models.QueuedRequest) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	req.ID = ident.NewRequestID()
	req.CreatedAt = time.Now().UnixMilli()
	q.items = append(q.items, req)
	q.persist()

	logging.Info("queued offline mutation", map[string]interface{}{
		"id":          req.ID,
		"method":      req.Method,
		"path":        req.Path,
		"description": req.Description,
	})

	return req.ID
}

// List returns the queued requests in insertion order. The returned slice
// is a copy; entries themselves are never mutated after insertion.
func (q *Queue) List() []models.QueuedRequest {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.QueuedRequest, len(q.items))
	copy(out, q.items)
	return out
}

// RemoveByID filters the entry out and rewrites the persisted list.
func (q *Queue) RemoveByID(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	for _, item := range q.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	q.items = kept
	q.persist()
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = nil
	q.persist()
}

// Size returns the number of queued requests.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// HasPending reports whether any request is waiting to sync.
func (q *Queue) HasPending() bool {
	return q.Size() > 0
}

// persist is called with q.mu held.
func (q *Queue) persist() {
	items := q.items
	if items == nil {
		items = []models.QueuedRequest{}
	}
	if err := q.store.putList(queueKey, items); err != nil {
		logging.Warn("queue persistence failed, entry durable in memory only", map[string]interface{}{
			"error": err.Error(),
			"size":  len(items),
		})
	}
}
