package memory

import (
	"context"
	"sync"
	"time"

	"github.com/HAN2S/Houps/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore with the
// same sliding-expiry contract as the Redis store. Useful for tests and
// single-process demos.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.RWMutex
	sessions map[string]storedSession
}

type storedSession struct {
	session   domain.GameSession
	expiresAt time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return NewSessionStoreWithClock(ttl, time.Now)
}

// NewSessionStoreWithClock allows deterministic expiry in tests.
func NewSessionStoreWithClock(ttl time.Duration, clock func() time.Time) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    clock,
		sessions: make(map[string]storedSession),
	}
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (domain.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[sessionID]
	if !ok || !entry.expiresAt.After(s.clock()) {
		return domain.GameSession{}, domain.ErrSessionNotFound
	}
	return clone(entry.session), nil
}

func (s *SessionStore) Put(_ context.Context, sessionID string, session domain.GameSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = storedSession{
		session:   clone(session),
		expiresAt: s.clock().Add(s.ttl),
	}
	return nil
}

// clone detaches the session from the caller's slices and pointers so the
// stored copy behaves like the serialized record the Redis store keeps.
func clone(s domain.GameSession) domain.GameSession {
	s.Players = append([]domain.Player(nil), s.Players...)
	s.ChosenCategoryIDs = append([]int64(nil), s.ChosenCategoryIDs...)
	s.FinalOptions = append([]string(nil), s.FinalOptions...)
	if s.CurrentQuestion != nil {
		q := *s.CurrentQuestion
		q.FallbackOptions = append([]string(nil), q.FallbackOptions...)
		s.CurrentQuestion = &q
	}
	if s.SelectedCategory != nil {
		v := *s.SelectedCategory
		s.SelectedCategory = &v
	}
	if s.SelectedDifficulty != nil {
		v := *s.SelectedDifficulty
		s.SelectedDifficulty = &v
	}
	if s.StartTime != nil {
		t := *s.StartTime
		s.StartTime = &t
	}
	if s.EndTime != nil {
		t := *s.EndTime
		s.EndTime = &t
	}
	return s
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
