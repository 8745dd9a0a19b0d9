package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore implements Store for tests and lightweight deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{now: time.Now}
}

func (s *InMemoryStore) Save(_ context.Context, userID string, data map[string]any) (Record, error) {
	if err := ValidateDocument(userID, data); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	rec := Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		Data:      data,
		CreatedAt: now().UTC(),
	}
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *InMemoryStore) List(_ context.Context, q Query) ([]Record, error) {
	if q.UserID == "" {
		return nil, opError("list", errors.New("user id is required"))
	}
	s.mu.RLock()
	snapshot := append([]Record(nil), s.records...)
	s.mu.RUnlock()
	return filterRecords(snapshot, q), nil
}

// Len reports the number of stored records across all users.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *InMemoryStore) Close() error { return nil }

var _ Store = (*InMemoryStore)(nil)
