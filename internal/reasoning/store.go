// Package reasoning implements the strategy state machine: explicit
// stepped reasoning sessions with strategy auto-selection, branching and
// backtracking for Tree-of-Thoughts, chain verification, reflection, and
// conclusion. Sessions live in a thread-safe in-memory store; callers only
// ever address them by session ID.
package reasoning

import (
	"sync"
	"time"

	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// Store is a thread-safe in-memory store of reasoning sessions. It is the
// sole owner of session state: reads return copies and all mutation goes
// through Update under the store lock, so two sessions never block each
// other on anything but the map itself.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*models.ReasoningSession
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*models.ReasoningSession)}
}

// Create stores a new session.
func (s *Store) Create(session *models.ReasoningSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return &models.ErrIllegalState{Entity: "session " + session.ID, Reason: "already exists"}
	}
	s.sessions[session.ID] = session
	return nil
}

// Get returns a copy of the session.
func (s *Store) Get(id string) (models.ReasoningSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return models.ReasoningSession{}, &models.ErrNotFound{Entity: "session", Key: id}
	}
	return copySession(session), nil
}

// Update applies fn to the stored session under the lock. An error from fn
// aborts the update and is returned unchanged.
func (s *Store) Update(id string, fn func(*models.ReasoningSession) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return &models.ErrNotFound{Entity: "session", Key: id}
	}
	if err := fn(session); err != nil {
		return err
	}
	session.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; !exists {
		return &models.ErrNotFound{Entity: "session", Key: id}
	}
	delete(s.sessions, id)
	return nil
}

// ActiveCount reports how many sessions are still active.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, sess := range s.sessions {
		if sess.Status == models.SessionActive {
			n++
		}
	}
	return n
}

// Len reports the total session count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// EvictIdle removes sessions untouched for longer than ttl and returns how
// many were evicted. Completed sessions are held to the same clock.
func (s *Store) EvictIdle(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-ttl)
	evicted := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

func copySession(src *models.ReasoningSession) models.ReasoningSession {
	dst := *src
	dst.Steps = append([]models.Step(nil), src.Steps...)
	dst.Branches = append([]models.Branch(nil), src.Branches...)
	if src.Conclusion != nil {
		conclusion := *src.Conclusion
		dst.Conclusion = &conclusion
	}
	return dst
}
