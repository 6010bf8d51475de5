// Package session tracks open booking surfaces. Each surface instance owns
// exactly one live controller; sessions are never shared and an idle surface
// is eventually evicted.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/booking"
	"github.com/AliShamas2000/codelance-web-v2-sub000/pkg/logging"
)

// ErrNotFound is returned for unknown or already-evicted session ids.
var ErrNotFound = errors.New("session: not found")

// Session binds one open booking surface to its controller.
type Session struct {
	ID         uuid.UUID
	Controller *booking.Controller
	createdAt  time.Time
	lastSeen   time.Time
}

// Store is an in-memory session registry. Controllers carry live in-flight
// fetch state, so sessions stay in process memory rather than an external
// store.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	idleTTL  time.Duration
	logger   *logging.Logger
	nowFn    func() time.Time
}

// NewStore creates a session store evicting sessions idle longer than
// idleTTL.
func NewStore(idleTTL time.Duration, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
		idleTTL:  idleTTL,
		logger:   logger,
		nowFn:    time.Now,
	}
}

// Create registers a new session for the given controller.
func (s *Store) Create(ctrl *booking.Controller) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn()
	sess := &Session{
		ID:         uuid.New(),
		Controller: ctrl,
		createdAt:  now,
		lastSeen:   now,
	}
	s.sessions[sess.ID] = sess
	s.logger.Info("booking session opened",
		"session_id", sess.ID, "surface", ctrl.Surface().Name)
	return sess
}

// Get returns a session and marks it as seen.
func (s *Store) Get(id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	sess.lastSeen = s.nowFn()
	return sess, nil
}

// Delete closes a session. Deleting an unknown id is a no-op.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		delete(s.sessions, id)
		s.logger.Info("booking session closed", "session_id", id)
	}
}

// Len returns the number of open sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle longer than the TTL and returns how many were
// removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.nowFn().Add(-s.idleTTL)
	evicted := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Info("evicted idle booking sessions", "count", evicted)
	}
	return evicted
}

// StartJanitor sweeps on an interval until ctx is done.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
