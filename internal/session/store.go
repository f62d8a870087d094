package session

import (
	"sync"
	"time"

	"carprice/internal"
	"carprice/internal/errors"

	"github.com/google/uuid"
)

// Store is an in-memory session registry safe for concurrent handlers.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	maxAge   time.Duration
	now      func() time.Time
	log      *internal.Logger
}

// NewStore creates a store that expires sessions idle for longer than
// maxAge. A zero maxAge keeps sessions until the process exits.
func NewStore(maxAge time.Duration) *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
		maxAge:   maxAge,
		now:      time.Now,
		log:      internal.DefaultLogger.Component("Session"),
	}
}

// Create starts a session with no criteria.
func (s *Store) Create() *Session {
	sess := newSession(s.now(), s.log)
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.log.Debug("Created session %s", sess.ID)
	return sess
}

// Get returns the session with the given id and marks it as used.
func (s *Store) Get(id string) (*Session, error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.InvalidInput("malformed session id")
	}
	s.mu.Lock()
	sess, ok := s.sessions[key]
	s.mu.Unlock()
	if !ok || s.expired(sess) {
		return nil, errors.NotFound("session " + id)
	}
	sess.touch(s.now())
	return sess, nil
}

// GetOrCreate returns the session for id, or a new one when id is empty,
// malformed, unknown or expired. The bool reports whether one was created.
func (s *Store) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if sess, err := s.Get(id); err == nil {
			return sess, false
		}
	}
	return s.Create(), true
}

// Delete ends a session.
func (s *Store) Delete(id string) {
	key, err := uuid.Parse(id)
	if err != nil {
		return
	}
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// CleanupExpired removes idle sessions and returns how many were removed.
func (s *Store) CleanupExpired() int {
	if s.maxAge <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.log.Info("Removed %d expired sessions", removed)
	}
	return removed
}

func (s *Store) expired(sess *Session) bool {
	return s.maxAge > 0 && s.now().Sub(sess.idleSince()) > s.maxAge
}
