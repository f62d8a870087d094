// Package session keeps the filter criteria of each dashboard visitor. State
// lives in memory only and ends with the process or the session's expiry.
package session

import (
	"sync"
	"time"

	"carprice/domain/car"
	"carprice/domain/filter"
	"carprice/internal"
	"carprice/internal/dataset"
	"carprice/internal/errors"

	"github.com/google/uuid"
)

// State is the filter state of a session.
type State string

const (
	// StateInitial means no criterion is active.
	StateInitial State = "initial"
	// StateFiltered means at least one criterion is active.
	StateFiltered State = "filtered"
)

func stateOf(c filter.Criteria) State {
	if c.IsEmpty() {
		return StateInitial
	}
	return StateFiltered
}

// Session holds one visitor's criteria. Pages read a copy through Criteria.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu       sync.RWMutex
	criteria filter.Criteria
	lastSeen time.Time
	log      *internal.Logger
}

// Snapshot is the serializable view of a session.
type Snapshot struct {
	ID       string          `json:"id"`
	State    State           `json:"state"`
	Criteria filter.Criteria `json:"criteria"`
	Summary  string          `json:"summary"`
}

func newSession(now time.Time, log *internal.Logger) *Session {
	return &Session{
		ID:        uuid.New(),
		CreatedAt: now,
		criteria:  filter.None(),
		lastSeen:  now,
		log:       log,
	}
}

// State reports whether any criterion is active.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stateOf(s.criteria)
}

// Criteria returns a copy of the active criteria.
func (s *Session) Criteria() filter.Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criteria.Clone()
}

// Snapshot returns the session's id, state and criteria.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:       s.ID.String(),
		State:    stateOf(s.criteria),
		Criteria: s.criteria.Clone(),
		Summary:  s.criteria.String(),
	}
}

// Set validates and stores the constraint for one field. An unrestricted
// constraint clears the field.
func (s *Session) Set(f car.Field, c filter.Constraint) (State, error) {
	c = dataset.NormalizeCriteria(filter.Criteria{f: c})[f]
	if err := (filter.Criteria{f: c}).Validate(); err != nil {
		return s.State(), invalid(err)
	}
	return s.update(func(criteria filter.Criteria) filter.Criteria {
		if c.Unrestricted() {
			delete(criteria, f)
			return criteria
		}
		criteria[f] = c
		return criteria
	}), nil
}

// Replace validates and stores a whole set of criteria.
func (s *Session) Replace(criteria filter.Criteria) (State, error) {
	criteria = dataset.NormalizeCriteria(criteria)
	if err := criteria.Validate(); err != nil {
		return s.State(), invalid(err)
	}
	next := criteria.Without(unrestricted(criteria)...)
	return s.update(func(filter.Criteria) filter.Criteria { return next }), nil
}

// Clear removes the constraint on f. Clearing the last one returns the
// session to the initial state.
func (s *Session) Clear(f car.Field) State {
	return s.update(func(criteria filter.Criteria) filter.Criteria {
		delete(criteria, f)
		return criteria
	})
}

// Reset drops every criterion.
func (s *Session) Reset() State {
	return s.update(func(filter.Criteria) filter.Criteria { return filter.None() })
}

func (s *Session) update(fn func(filter.Criteria) filter.Criteria) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := stateOf(s.criteria)
	s.criteria = fn(s.criteria.Clone())
	after := stateOf(s.criteria)
	if before != after {
		s.log.Debug("Session %s: %s -> %s", s.ID, before, after)
	}
	return after
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

func invalid(err error) error {
	return &errors.AppError{Code: errors.CodeInvalidInput, Message: "invalid filter", Cause: err}
}

func unrestricted(c filter.Criteria) []car.Field {
	var out []car.Field
	for f, con := range c {
		if con.Unrestricted() {
			out = append(out, f)
		}
	}
	return out
}
