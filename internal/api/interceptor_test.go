package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/moniehq/moniesync/internal/models"
	"github.com/moniehq/moniesync/internal/store"
)

type stubConnectivity struct{ online bool }

func (s stubConnectivity) Online() bool { return s.online }

type fakeApplier struct {
	applied []string
	removed []string
	result  *models.OptimisticData
}

func (f *fakeApplier) Apply(method, path string, body []byte) *models.OptimisticData {
	f.applied = append(f.applied, method+" "+path)
	return f.result
}

func (f *fakeApplier) Remove(cacheKey, tempID string) {
	f.removed = append(f.removed, cacheKey+"|"+tempID)
}

type fakeSession struct {
	invalidated   bool
	atLoginScreen bool
}

func (f *fakeSession) Invalidate()           { f.invalidated = true }
func (f *fakeSession) AtLoginBoundary() bool { return f.atLoginScreen }

type silentNotifier struct {
	successes []string
}

func (n *silentNotifier) Success(msg string) { n.successes = append(n.successes, msg) }
func (n *silentNotifier) Error(msg string)   {}
func (n *silentNotifier) Info(msg string)    {}

func newTestQueue(t *testing.T) *store.Queue {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	q, err := store.OpenQueue(s)
	if err != nil {
		t.Fatalf("OpenQueue failed: %v", err)
	}
	return q
}

func TestIsMutation(t *testing.T) {
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		if !IsMutation(method) {
			t.Errorf("IsMutation(%s) = false", method)
		}
	}
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPatch} {
		if IsMutation(method) {
			t.Errorf("IsMutation(%s) = true", method)
		}
	}
}

func TestInterceptor_onlineMutationPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	q := newTestQueue(t)
	applier := &fakeApplier{}
	ic := NewInterceptor(NewClient(srv.URL, nil, time.Second), q, applier, stubConnectivity{online: true}, &fakeSession{}, &silentNotifier{})

	resp, err := ic.Do(context.Background(), Request{Method: http.MethodPost, Path: "/transactions"}, "create transaction", nil)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if q.Size() != 0 {
		t.Error("successful mutation must not be queued")
	}
	if len(applier.applied) != 0 {
		t.Error("successful mutation must not get a placeholder")
	}
}

func TestInterceptor_offlineMutationQueued(t *testing.T) {
	q := newTestQueue(t)
	applier := &fakeApplier{result: &models.OptimisticData{CacheKey: "transaction/7", TempID: "temp-x"}}
	notifier := &silentNotifier{}
	ic := NewInterceptor(NewClient("http://localhost:1", nil, time.Second), q, applier, stubConnectivity{online: false}, &fakeSession{}, notifier)

	reqCtx := &models.RequestContext{WorkspaceID: 3, AccountID: 12}
	_, err := ic.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/transactions",
		Body:   json.RawMessage(`{"amount":"25"}`),
	}, "create transaction", reqCtx)

	if !IsQueuedOffline(err) {
		t.Fatalf("err = %v, want QueuedOfflineError", err)
	}

	items := q.List()
	if len(items) != 1 {
		t.Fatalf("queue size = %d, want 1", len(items))
	}
	entry := items[0]
	if entry.Method != http.MethodPost || entry.Path != "/transactions" {
		t.Errorf("queued %s %s", entry.Method, entry.Path)
	}
	if string(entry.Body) != `{"amount":"25"}` {
		t.Errorf("queued body = %s, want replayable verbatim", entry.Body)
	}
	if entry.Optimistic == nil || entry.Optimistic.TempID != "temp-x" {
		t.Errorf("queued optimistic data = %+v", entry.Optimistic)
	}
	if entry.Context == nil || entry.Context.WorkspaceID != 3 {
		t.Errorf("queued context = %+v", entry.Context)
	}

	if len(applier.applied) != 1 {
		t.Errorf("placeholder applied %d times, want 1", len(applier.applied))
	}
	if len(notifier.successes) != 1 {
		t.Errorf("success notifications = %v, want saved-offline notice", notifier.successes)
	}
}

func TestInterceptor_networkFailureQueuedReactively(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	q := newTestQueue(t)
	// Connectivity still reports online; the failure itself triggers queueing.
	ic := NewInterceptor(NewClient(srv.URL, nil, time.Second), q, &fakeApplier{}, stubConnectivity{online: true}, &fakeSession{}, &silentNotifier{})

	_, err := ic.Do(context.Background(), Request{Method: http.MethodPut, Path: "/transactions/9"}, "update transaction", nil)
	if !IsQueuedOffline(err) {
		t.Fatalf("err = %v, want QueuedOfflineError", err)
	}
	if q.Size() != 1 {
		t.Errorf("queue size = %d, want 1", q.Size())
	}
}

func TestInterceptor_httpErrorNotQueued(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	q := newTestQueue(t)
	ic := NewInterceptor(NewClient(srv.URL, nil, time.Second), q, &fakeApplier{}, stubConnectivity{online: true}, &fakeSession{}, &silentNotifier{})

	_, err := ic.Do(context.Background(), Request{Method: http.MethodPost, Path: "/transactions"}, "create transaction", nil)
	if IsQueuedOffline(err) {
		t.Fatal("a rejected request must surface its error, not queue")
	}
	if StatusCode(err) != http.StatusUnprocessableEntity {
		t.Errorf("err = %v", err)
	}
	if q.Size() != 0 {
		t.Error("server rejections are final, nothing to queue")
	}
}

func TestInterceptor_readsNeverQueued(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	q := newTestQueue(t)
	ic := NewInterceptor(NewClient(srv.URL, nil, time.Second), q, &fakeApplier{}, stubConnectivity{online: false}, &fakeSession{}, &silentNotifier{})

	_, err := ic.Do(context.Background(), Request{Method: http.MethodGet, Path: "/transactions"}, "", nil)
	if !IsNetworkError(err) {
		t.Fatalf("err = %v, want the transport failure surfaced", err)
	}
	if q.Size() != 0 {
		t.Error("reads must never enter the queue")
	}
}

func TestInterceptor_unauthorizedInvalidatesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	session := &fakeSession{}
	ic := NewInterceptor(NewClient(srv.URL, nil, time.Second), newTestQueue(t), &fakeApplier{}, stubConnectivity{online: true}, session, &silentNotifier{})

	_, err := ic.Do(context.Background(), Request{Method: http.MethodGet, Path: "/me"}, "", nil)
	if StatusCode(err) != http.StatusUnauthorized {
		t.Fatalf("err = %v", err)
	}
	if !session.invalidated {
		t.Error("session not invalidated on 401")
	}
}

func TestInterceptor_unauthorizedAtLoginBoundarySkipsTeardown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	session := &fakeSession{atLoginScreen: true}
	ic := NewInterceptor(NewClient(srv.URL, nil, time.Second), newTestQueue(t), &fakeApplier{}, stubConnectivity{online: true}, session, &silentNotifier{})

	ic.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/login"}, "", nil)
	if session.invalidated {
		t.Error("401 on the login boundary must not tear down the session")
	}
}
