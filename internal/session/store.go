// Package session owns the bearer-token lifecycle: durable storage, the
// authenticated/not-authenticated question, verification against the auth
// service, refresh on expiry, and logout.
package session

import (
	"errors"
	"sync"

	"fintrack/internal/core"
)

// ErrNoSession is returned by stores when nothing is persisted.
var ErrNoSession = errors.New("no stored session")

// Store persists the session across process restarts. Implementations must
// make Clear a no-op when no session exists.
type Store interface {
	Load() (core.Session, error)
	Save(core.Session) error
	Clear() error
}

// MemoryStore keeps the session in memory. Used in tests and by one-shot
// commands that log in and out within a single run.
type MemoryStore struct {
	mu      sync.Mutex
	session core.Session
	present bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.present {
		return core.Session{}, ErrNoSession
	}
	return s.session, nil
}

func (s *MemoryStore) Save(sess core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
	s.present = true
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = core.Session{}
	s.present = false
	return nil
}
