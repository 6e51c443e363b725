package otpstore

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	code      string
	expiresAt time.Time
}

// MemoryStore keeps pending codes in process memory
// Used in tests and as a dev fallback when redis is not configured
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord

	// now is replaceable in tests
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]memoryRecord),
		now:     time.Now,
	}
}

func (s *MemoryStore) Upsert(_ context.Context, email string, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[email] = memoryRecord{
		code:      code,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Verify(_ context.Context, email string, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[email]
	if !ok {
		return false, nil
	}

	// expired records fail closed, cleanup is lazy
	if !s.now().Before(record.expiresAt) {
		delete(s.records, email)
		return false, nil
	}

	return record.code == code, nil
}

func (s *MemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, email)
	return nil
}
