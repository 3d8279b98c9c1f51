package linkcode

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps codes in process, for tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*memoryRecord
}

type memoryRecord struct {
	Record
	used bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]*memoryRecord{}}
}

func (s *MemoryStore) Save(_ context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.Hash] = &memoryRecord{Record: *r}
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, hash string, purpose Purpose, now time.Time) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[hash]
	if !ok || rec.used || rec.Purpose != purpose || !now.Before(rec.ExpiresAt) {
		return uuid.Nil, ErrInvalidCode
	}
	rec.used = true
	return rec.ProfileID, nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, before time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, rec := range s.records {
		if !before.Before(rec.ExpiresAt) {
			delete(s.records, hash)
		}
	}
	return nil
}

// Len reports how many codes are stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
