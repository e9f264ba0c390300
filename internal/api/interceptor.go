package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/moniehq/moniesync/internal/logging"
	"github.com/moniehq/moniesync/internal/models"
	"github.com/moniehq/moniesync/internal/notify"
	"github.com/moniehq/moniesync/internal/store"
)

// QueuedOfflineError signals that a mutation was redirected into the
// offline queue instead of being sent. It is a control-flow condition,
// not a failure: callers must not surface it as an error.
type QueuedOfflineError struct {
	RequestID string
}

func (e *QueuedOfflineError) Error() string {
	return "request queued for offline sync"
}

// IsQueuedOffline reports whether err is the queued-offline condition.
func IsQueuedOffline(err error) bool {
	var qErr *QueuedOfflineError
	return errors.As(err, &qErr)
}

// Connectivity reports the ambient network state.
type Connectivity interface {
	Online() bool
}

// OptimisticApplier synthesizes and removes speculative placeholder
// records for queued mutations.
type OptimisticApplier interface {
	Apply(method, path string, body []byte) *models.OptimisticData
	Remove(cacheKey, tempID string)
}

// Session handles credential invalidation on a 401.
type Session interface {
	// Invalidate clears the stored credential and moves the UI to the
	// login boundary.
	Invalidate()

	// AtLoginBoundary reports whether the user is already on an
	// unauthenticated route, in which case a 401 needs no teardown.
	AtLoginBoundary() bool
}

// Interceptor wraps the client, deciding per mutation whether to let it
// reach the network or redirect it into the queue. All collaborators
// are injected at construction time.
type Interceptor struct {
	client       *Client
	queue        *store.Queue
	applier      OptimisticApplier
	connectivity Connectivity
	session      Session
	notifier     notify.Notifier
}

// NewInterceptor wires an Interceptor.
func NewInterceptor(client *Client, queue *store.Queue, applier OptimisticApplier, connectivity Connectivity, session Session, notifier notify.Notifier) *Interceptor {
	return &Interceptor{
		client:       client,
		queue:        queue,
		applier:      applier,
		connectivity: connectivity,
		session:      session,
		notifier:     notifier,
	}
}

// IsMutation reports whether a method qualifies for offline queueing.
func IsMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// Do routes a request. Non-mutations always pass through. Mutations are
// queued instead of sent when connectivity is known to be down, or after
// the fact when the network call fails without an HTTP response. The
// queued case returns a QueuedOfflineError.
func (i *Interceptor) Do(ctx context.Context, req Request, description string, reqCtx *models.RequestContext) (*Response, error) {
	if !IsMutation(req.Method) {
		resp, err := i.client.Do(ctx, req)
		return resp, i.check401(err)
	}

	if !i.connectivity.Online() {
		id := i.queueOffline(req, description, reqCtx)
		return nil, &QueuedOfflineError{RequestID: id}
	}

	resp, err := i.client.Do(ctx, req)
	if err == nil {
		return resp, nil
	}

	if IsNetworkError(err) {
		logging.Debug("mutation failed with network error, queueing", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
		})
		id := i.queueOffline(req, description, reqCtx)
		return nil, &QueuedOfflineError{RequestID: id}
	}

	return nil, i.check401(err)
}

// queueOffline runs the optimistic apply before the enqueue so the UI
// never observes a queued request without its placeholder.
func (i *Interceptor) queueOffline(req Request, description string, reqCtx *models.RequestContext) string {
	opt := i.applier.Apply(req.Method, req.Path, req.Body)

	id := i.queue.Enqueue(models.QueuedRequest{
		Method:      req.Method,
		Path:        req.Path,
		Body:        req.Body,
		Params:      req.Params,
		Headers:     req.Headers,
		Description: description,
		Optimistic:  opt,
		Context:     reqCtx,
	})

	i.notifier.Success("Saved offline. Changes will sync when the connection returns.")
	return id
}

// check401 runs the session-invalidation side effect on a 401 and
// passes every other error through untouched.
func (i *Interceptor) check401(err error) error {
	if err == nil {
		return nil
	}
	if StatusCode(err) == http.StatusUnauthorized && i.session != nil && !i.session.AtLoginBoundary() {
		logging.Info("session expired, clearing credential")
		i.session.Invalidate()
	}
	return err
}
