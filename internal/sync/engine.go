// Package sync drains the offline request queue against the network and
// reconciles optimistic state on every outcome.
package sync

import (
	"context"
	"fmt"
	gosync "sync"

	"github.com/moniehq/moniesync/internal/api"
	apperrors "github.com/moniehq/moniesync/internal/errors"
	"github.com/moniehq/moniesync/internal/logging"
	"github.com/moniehq/moniesync/internal/models"
	"github.com/moniehq/moniesync/internal/notify"
	"github.com/moniehq/moniesync/internal/store"
)

// Replayer re-issues a queued request against the network.
type Replayer interface {
	Do(ctx context.Context, req api.Request) (*api.Response, error)
}

// PlaceholderRemover removes an optimistic placeholder from the query
// cache and the display cache.
type PlaceholderRemover interface {
	Remove(cacheKey, tempID string)
}

// Invalidator drops all locally cached query data.
type Invalidator interface {
	InvalidateAll()
}

// Connectivity reports the ambient network state.
type Connectivity interface {
	Online() bool
}

// ContextSource supplies the current session's workspace/account scope
// for mismatch detection against queued entries.
type ContextSource interface {
	Current() *models.RequestContext
}

// Observer receives sync run lifecycle events, e.g. for broadcasting
// over a websocket to the UI.
type Observer interface {
	SyncStarted(total int)
	SyncProgress(current, total int)
	SyncCompleted(result Result)
}

// Progress is the position of an in-flight sync run.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Result is the aggregate outcome of one sync run.
type Result struct {
	Success   bool              `json:"success"`
	Processed int               `json:"processed"`
	Failed    int               `json:"failed"`
	Failures  map[string]string `json:"failures,omitempty"`
}

// Engine drains the queue. Exactly one run may be in flight at a time;
// concurrent triggers are rejected without touching the queue.
type Engine struct {
	queue        *store.Queue
	client       Replayer
	remover      PlaceholderRemover
	cache        Invalidator
	connectivity Connectivity
	notifier     notify.Notifier

	session  ContextSource // optional
	observer Observer      // optional

	mu       gosync.Mutex
	running  bool
	progress Progress
}

// NewEngine wires an Engine.
func NewEngine(queue *store.Queue, client Replayer, remover PlaceholderRemover, cache Invalidator, connectivity Connectivity, notifier notify.Notifier) *Engine {
	return &Engine{
		queue:        queue,
		client:       client,
		remover:      remover,
		cache:        cache,
		connectivity: connectivity,
		notifier:     notifier,
	}
}

// SetObserver attaches a lifecycle observer.
func (e *Engine) SetObserver(o Observer) {
	e.observer = o
}

// SetContextSource attaches the session scope provider.
func (e *Engine) SetContextSource(cs ContextSource) {
	e.session = cs
}

// IsSyncing reports whether a run is in flight.
func (e *Engine) IsSyncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Progress returns the position of the in-flight run, zero when idle.
func (e *Engine) Progress() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

// PendingCount returns the number of queued mutations.
func (e *Engine) PendingCount() int {
	return e.queue.Size()
}

// HasPendingChanges reports whether anything is waiting to sync.
func (e *Engine) HasPendingChanges() bool {
	return e.queue.HasPending()
}

// TriggerSync runs one drain over a snapshot of the queue, strictly in
// enqueue order. Every entry gets exactly one replay attempt: success
// and failure both dequeue the entry and remove its placeholder, so a
// failed entry is gone after the run. Entries enqueued while the run is
// in flight are left for the next trigger.
func (e *Engine) TriggerSync(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, apperrors.New(apperrors.ErrSyncInProgress, "sync already in progress")
	}
	e.running = true
	e.progress = Progress{}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.progress = Progress{}
		e.mu.Unlock()
	}()

	entries := e.queue.List()
	if len(entries) == 0 {
		return &Result{Success: true}, nil
	}

	if !e.connectivity.Online() {
		e.notifier.Error("Cannot sync while offline. Queued changes are kept.")
		return nil, apperrors.New(apperrors.ErrSyncOffline, "cannot sync while offline")
	}

	total := len(entries)
	if e.observer != nil {
		e.observer.SyncStarted(total)
	}

	logging.Info("sync run started", map[string]interface{}{"total": total})

	result := &Result{Failures: make(map[string]string)}
	current := e.currentContext()

	for i, entry := range entries {
		e.setProgress(i+1, total)

		if entry.Context != nil && !entry.Context.Matches(current) {
			logging.Warn("queued request context differs from current session", map[string]interface{}{
				"id":          entry.ID,
				"description": entry.Description,
			})
		}

		_, err := e.client.Do(ctx, api.Request{
			Method:  entry.Method,
			Path:    entry.Path,
			Body:    entry.Body,
			Params:  entry.Params,
			Headers: entry.Headers,
		})

		// Placeholder removal and dequeue happen on both outcomes:
		// a failed entry is never retried.
		if entry.Optimistic != nil {
			e.remover.Remove(entry.Optimistic.CacheKey, entry.Optimistic.TempID)
		}
		e.queue.RemoveByID(entry.ID)

		if err != nil {
			result.Failed++
			result.Failures[entry.Description] = err.Error()
			logging.ErrorWithCode("queued request replay failed, entry dropped", string(apperrors.ErrSyncFailed), err, map[string]interface{}{
				"id":          entry.ID,
				"description": entry.Description,
			})
		} else {
			result.Processed++
		}
	}

	// Server state is authoritative now that placeholders are gone.
	e.cache.InvalidateAll()

	result.Success = result.Failed == 0
	if result.Success {
		e.notifier.Success(fmt.Sprintf("Synced %d offline change(s)", result.Processed))
	} else {
		e.notifier.Error(fmt.Sprintf("Synced %d change(s), %d failed", result.Processed, result.Failed))
	}

	logging.Info("sync run finished", map[string]interface{}{
		"processed": result.Processed,
		"failed":    result.Failed,
	})

	if e.observer != nil {
		e.observer.SyncCompleted(*result)
	}

	return result, nil
}

func (e *Engine) setProgress(current, total int) {
	e.mu.Lock()
	e.progress = Progress{Current: current, Total: total}
	e.mu.Unlock()

	if e.observer != nil {
		e.observer.SyncProgress(current, total)
	}
}

func (e *Engine) currentContext() *models.RequestContext {
	if e.session == nil {
		return nil
	}
	return e.session.Current()
}
