package store

import (
	"context"
	"sort"
	"sync"

	"resumind/internal/types"
)

// MemoryStore is an in-process RecordStore for tests and single-binary
// deployments without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]types.ResumeRecord
}

// NewMemoryStore creates an empty in-memory record store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]types.ResumeRecord)}
}

func (s *MemoryStore) Save(ctx context.Context, rec *types.ResumeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = *rec
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*types.ResumeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, NotFound(id)
	}
	copy := rec
	return &copy, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*types.ResumeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*types.ResumeRecord, 0, len(s.records))
	for id := range s.records {
		rec := s.records[id]
		records = append(records, &rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return NotFound(id)
	}
	delete(s.records, id)
	return nil
}
