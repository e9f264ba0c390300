// Package session holds the API bearer credential. The token is kept
// encrypted at rest so a stolen data directory does not leak it.
package session

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/moniehq/moniesync/internal/errors"
	"github.com/moniehq/moniesync/internal/logging"
)

const tokenFile = "token.cred"

// Session is the daemon's credential holder. It satisfies both the
// client's credential source and the interceptor's 401 hook.
type Session struct {
	mu    sync.RWMutex
	path  string
	token string
}

// Open loads any persisted token from dataDir. A missing file simply
// means logged out; an undecryptable file is discarded.
func Open(dataDir string) (*Session, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, errors.Wrap(errors.ErrStorage, "failed to create data directory", err)
	}

	s := &Session{path: filepath.Join(dataDir, tokenFile)}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrStorage, "failed to read token file", err)
	}

	plaintext, err := open(string(data), machineKey())
	if err != nil {
		logging.Warn("discarding undecryptable token file", map[string]interface{}{
			"path": s.path,
		})
		os.Remove(s.path)
		return s, nil
	}

	s.token = string(plaintext)
	return s, nil
}

// Token returns the current bearer token, or "" when logged out. Read
// on every request so replays pick up a rotated credential.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken stores a new credential and persists it encrypted.
func (s *Session) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	if token == "" {
		return s.removeLocked()
	}

	sealed, err := seal([]byte(token), machineKey())
	if err != nil {
		return errors.Wrap(errors.ErrInternal, "failed to encrypt token", err)
	}
	if err := os.WriteFile(s.path, []byte(sealed), 0600); err != nil {
		return errors.Wrap(errors.ErrStorage, "failed to write token file", err)
	}
	return nil
}

// Invalidate clears the credential after the server rejected it. The
// queue is untouched; replays will carry whatever token a later login
// provides.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		return
	}
	logging.Info("clearing invalidated credential")
	s.token = ""
	if err := s.removeLocked(); err != nil {
		logging.Warn("failed to remove token file", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// AtLoginBoundary reports whether no credential is held, in which case
// a 401 needs no further teardown.
func (s *Session) AtLoginBoundary() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token == ""
}

// LoggedIn reports whether a credential is currently held.
func (s *Session) LoggedIn() bool {
	return !s.AtLoginBoundary()
}

func (s *Session) removeLocked() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrStorage, "failed to remove token file", err)
	}
	return nil
}
