package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"polcoord/internal/app"
)

// AttemptStore is a Redis-aware implementation of app.AttemptRepository.
// Scorers live in a local map; Redis holds a liveness marker per attempt so
// operators can count active attempts across instances. The marker is
// refreshed on every lookup and expires after ttl of inactivity.
type AttemptStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	attempts map[string]*attempt
}

type attempt struct {
	scorer  *app.Scorer
	holders int
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		client:   client,
		ttl:      ttl,
		attempts: make(map[string]*attempt),
	}
}

func (s *AttemptStore) GetOrCreate(attemptID string, create func() *app.Scorer) (*app.Scorer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.attempts[attemptID]; ok {
		a.holders++
		s.touch(attemptID)
		return a.scorer, false
	}
	a := &attempt{scorer: create(), holders: 1}
	s.attempts[attemptID] = a
	s.touch(attemptID)
	return a.scorer, true
}

func (s *AttemptStore) Get(attemptID string) (*app.Scorer, bool) {
	s.mu.RLock()
	a, ok := s.attempts[attemptID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.touch(attemptID)
	return a.scorer, true
}

// Release drops one holder. The last holder removes the attempt and its key.
func (s *AttemptStore) Release(attemptID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[attemptID]
	if !ok {
		return
	}
	if a.holders--; a.holders > 0 {
		return
	}
	delete(s.attempts, attemptID)
	_ = s.client.Del(context.Background(), AttemptKey(attemptID)).Err()
}

// best-effort liveness marker
func (s *AttemptStore) touch(attemptID string) {
	_ = s.client.Set(context.Background(), AttemptKey(attemptID), "1", s.ttl).Err()
}

// AttemptKey is the liveness key of an attempt.
func AttemptKey(attemptID string) string {
	return "polcoord:attempt:" + attemptID
}
