package memory

import (
	"sync"

	"polcoord/internal/app"
)

type attempt struct {
	scorer  *app.Scorer
	holders int
}

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]*attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]*attempt),
	}
}

func (s *AttemptStore) GetOrCreate(attemptID string, create func() *app.Scorer) (*app.Scorer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.attempts[attemptID]; ok {
		a.holders++
		return a.scorer, false
	}
	a := &attempt{scorer: create(), holders: 1}
	s.attempts[attemptID] = a
	return a.scorer, true
}

func (s *AttemptStore) Get(attemptID string) (*app.Scorer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attempts[attemptID]
	if !ok {
		return nil, false
	}
	return a.scorer, true
}

// Release drops one holder; the attempt is removed with its last holder.
func (s *AttemptStore) Release(attemptID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[attemptID]
	if !ok {
		return
	}
	if a.holders--; a.holders <= 0 {
		delete(s.attempts, attemptID)
	}
}

// Len reports how many attempts are live.
func (s *AttemptStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts)
}
