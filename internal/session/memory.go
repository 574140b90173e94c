package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	memberID  uint64
	expiresAt time.Time
}

// MemoryStore is the single-process fallback used when Redis is not
// reachable at startup. Expired entries are dropped lazily on lookup.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Create(_ context.Context, memberID uint64, ttl time.Duration) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.sessions[id] = memoryEntry{memberID: memberID, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
	return id, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return 0, ErrNotFound
	}
	if time.Now().After(e.expiresAt) {
		delete(s.sessions, id)
		return 0, ErrNotFound
	}
	return e.memberID, nil
}

func (s *MemoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}
