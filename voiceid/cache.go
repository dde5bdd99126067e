package voiceid

import (
	"context"
	"sync"
	"time"
)

// Assignment is a cached resolution of an engine label. Exactly one of
// Identity and Unknown is meaningful.
type Assignment struct {
	Identity string `json:"identity,omitempty"`
	Unknown  int    `json:"unknown,omitempty"`
}

// AssignmentStore persists label assignments across reconnects.
// redis.TypedStore[Assignment] satisfies it; MemoryStore is the
// cacheless fallback.
type AssignmentStore interface {
	Load(ctx context.Context, key string) (*Assignment, error)
	Save(ctx context.Context, key string, val *Assignment, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is an in-process AssignmentStore with TTL expiry.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	val     Assignment
	expires time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Load(ctx context.Context, key string) (*Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && s.now().After(e.expires) {
		delete(s.entries, key)
		return nil, nil
	}
	val := e.val
	return &val, nil
}

func (s *MemoryStore) Save(ctx context.Context, key string, val *Assignment, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memoryEntry{val: *val}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
