package coach

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// timeNow is a variable for testing purposes (allows mocking time).
var timeNow = time.Now

// Store owns all session state. It is the only shared mutable resource in
// the package; every mutation goes through its methods. Construct one at
// process start and inject it into the Service.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	maxEvents   int
	maxSessions int
}

// sessionEntry pairs a session with its exclusive lock. The per-session
// mutex serializes the orchestrator's append-detect-decide sequence so two
// concurrent reports for the same session never interleave.
type sessionEntry struct {
	mu    sync.Mutex
	state SessionState
}

// NewStore creates an empty session store.
func NewStore(maxEvents, maxSessions int) *Store {
	return &Store{
		sessions:    make(map[string]*sessionEntry),
		maxEvents:   maxEvents,
		maxSessions: maxSessions,
	}
}

// Create starts a new session and returns its identifier.
// Fails with ErrInvalidConfiguration on an empty goal or unknown mode.
func (s *Store) Create(goal, mode string) (string, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return "", fmt.Errorf("%w: goal is required", ErrInvalidConfiguration)
	}
	m, err := ParseMode(mode)
	if err != nil {
		return "", err
	}

	now := timeNow()
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.maxSessions {
		s.evictOldestLocked()
	}

	s.sessions[id] = &sessionEntry{
		state: SessionState{
			ID:           id,
			Goal:         goal,
			Mode:         m,
			StartedAt:    now,
			LastActivity: now,
			Occurrences:  make(map[ConditionType]int),
		},
	}
	return id, nil
}

// evictOldestLocked drops the least recently active session.
// Caller must hold s.mu.
func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, e := range s.sessions {
		if oldestID == "" || e.state.LastActivity.Before(oldest) {
			oldestID = id
			oldest = e.state.LastActivity
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
	}
}

// Update runs fn with exclusive access to the session's state.
// Fails with ErrUnknownSession if the session does not exist.
func (s *Store) Update(id string, fn func(*SessionState) error) error {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(&e.state); err != nil {
		return err
	}
	e.state.LastActivity = timeNow()
	return nil
}

// Snapshot returns a deep copy of the session state.
func (s *Store) Snapshot(id string) (SessionState, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return SessionState{}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone(), nil
}

// Append records a watch event on the session.
//
// Timestamps must be non-decreasing within a session; an event arriving
// with an earlier timestamp (concurrent tabs, clock skew) is clamped to
// the previous event's timestamp rather than rejected. History is capped
// at the configured maximum, dropping the oldest event.
func (s *Store) Append(id string, ev WatchEvent) error {
	return s.Update(id, func(st *SessionState) error {
		appendEvent(st, ev, s.maxEvents)
		return nil
	})
}

// appendEvent applies the clamp and cap policies. Used by Append and by the
// Service inside its combined Update critical section.
func appendEvent(st *SessionState, ev WatchEvent, maxEvents int) {
	if n := len(st.Events); n > 0 && ev.Timestamp.Before(st.Events[n-1].Timestamp) {
		ev.Timestamp = st.Events[n-1].Timestamp
	}
	st.Events = append(st.Events, ev)
	if len(st.Events) > maxEvents {
		st.Events = st.Events[len(st.Events)-maxEvents:]
	}
}

// RecordBreak stores a break marker consulted by the NoBreakTaken rule.
func (s *Store) RecordBreak(id string, at time.Time) error {
	return s.Update(id, func(st *SessionState) error {
		t := at
		st.LastBreak = &t
		return nil
	})
}

// Remove evicts a session and returns its final state.
func (s *Store) Remove(id string) (SessionState, error) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return SessionState{}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone(), nil
}

// Len returns the number of tracked sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
