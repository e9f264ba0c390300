package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	gosync "sync"

	"github.com/moniehq/moniesync/internal/api"
	apperrors "github.com/moniehq/moniesync/internal/errors"
	"github.com/moniehq/moniesync/internal/models"
	"github.com/moniehq/moniesync/internal/session"
	"github.com/moniehq/moniesync/internal/store"
	syncengine "github.com/moniehq/moniesync/internal/sync"
)

// server is the daemon's HTTP surface. UIs issue mutations through the
// proxy endpoint; the interceptor decides whether they hit the network
// or the queue.
type server struct {
	engine      *syncengine.Engine
	monitor     *syncengine.Monitor
	queue       *store.Queue
	display     *store.DisplayCache
	session     *session.Session
	interceptor *api.Interceptor
	hub         *WSHub

	mu         gosync.RWMutex
	currentCtx *models.RequestContext
}

func newServer(engine *syncengine.Engine, monitor *syncengine.Monitor, queue *store.Queue, display *store.DisplayCache, sess *session.Session, interceptor *api.Interceptor, hub *WSHub) *server {
	return &server{
		engine:      engine,
		monitor:     monitor,
		queue:       queue,
		display:     display,
		session:     sess,
		interceptor: interceptor,
		hub:         hub,
	}
}

// Current implements the engine's context source.
func (s *server) Current() *models.RequestContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentCtx
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/sync/status", s.handleSyncStatus)
	mux.HandleFunc("/api/sync/trigger", s.handleSyncTrigger)
	mux.HandleFunc("/api/queue", s.handleQueue)
	mux.HandleFunc("/api/cache/display", s.handleDisplayCache)
	mux.HandleFunc("/api/session/login", s.handleLogin)
	mux.HandleFunc("/api/session/logout", s.handleLogout)
	mux.HandleFunc("/api/proxy/", s.handleProxy)
	mux.HandleFunc("/ws", HandleWebSocket(s.hub))
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "moniesyncd",
	})
}

func (s *server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pending":   s.engine.PendingCount(),
		"syncing":   s.engine.IsSyncing(),
		"progress":  s.engine.Progress(),
		"online":    s.monitor.Online(),
		"logged_in": s.session.LoggedIn(),
	})
}

func (s *server) handleSyncTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := s.engine.TriggerSync(r.Context())
	switch {
	case apperrors.Is(err, apperrors.ErrSyncInProgress):
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error": "sync already in progress",
		})
	case apperrors.Is(err, apperrors.ErrSyncOffline):
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error": "offline, queued changes kept",
		})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": err.Error(),
		})
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *server) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": s.queue.List(),
	})
}

// handleDisplayCache returns offline placeholders, optionally narrowed
// to one entity family and budget period, so a restarted UI can render
// pending records before any network call.
func (s *server) handleDisplayCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entityParam := r.URL.Query().Get("entity")
	if entityParam == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"items": s.display.Items(),
		})
		return
	}

	entity, err := models.ParseEntityType(entityParam)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	var scopeID int64
	if raw := r.URL.Query().Get("scope_id"); raw != "" {
		scopeID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error": "invalid scope_id",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": s.display.ListByType(entity, scopeID),
	})
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		Token       string `json:"token"`
		WorkspaceID int64  `json:"workspace_id"`
		AccountID   int64  `json:"account_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "token is required",
		})
		return
	}

	if err := s.session.SetToken(payload.Token); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	s.mu.Lock()
	if payload.WorkspaceID != 0 || payload.AccountID != 0 {
		s.currentCtx = &models.RequestContext{
			WorkspaceID: payload.WorkspaceID,
			AccountID:   payload.AccountID,
		}
	} else {
		s.currentCtx = nil
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logged_in": true,
		"pending":   s.queue.Size(),
	})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Queued changes survive logout; they replay under the next login's
	// credential.
	s.session.Invalidate()
	s.mu.Lock()
	s.currentCtx = nil
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logged_in": false,
	})
}

// handleProxy forwards one API call through the interceptor. The path
// after /api/proxy is the upstream path, query parameters carry over,
// and X-Request-Description labels the entry if it ends up queued.
func (s *server) handleProxy(w http.ResponseWriter, r *http.Request) {
	upstreamPath := strings.TrimPrefix(r.URL.Path, "/api/proxy")
	if upstreamPath == "" || upstreamPath == "/" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "missing upstream path",
		})
		return
	}

	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error": "unreadable request body",
			})
			return
		}
	}

	params := make(map[string]string)
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}

	description := r.Header.Get("X-Request-Description")
	if description == "" {
		description = r.Method + " " + upstreamPath
	}

	req := api.Request{
		Method: r.Method,
		Path:   upstreamPath,
		Body:   body,
		Params: params,
	}

	resp, err := s.interceptor.Do(r.Context(), req, description, s.Current())
	if err != nil {
		s.writeProxyError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)
}

func (s *server) writeProxyError(w http.ResponseWriter, err error) {
	// Queued offline is not a failure: the mutation is saved and will
	// sync when the connection returns.
	var queuedErr *api.QueuedOfflineError
	if errors.As(err, &queuedErr) {
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"queued":     true,
			"request_id": queuedErr.RequestID,
		})
		return
	}

	// Mirror upstream rejections as-is.
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		if len(statusErr.Body) > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(statusErr.StatusCode)
			w.Write(statusErr.Body)
			return
		}
		writeJSON(w, statusErr.StatusCode, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusBadGateway, map[string]interface{}{
		"error": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
