package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/engram-oss/engram/internal/errors"
	"github.com/engram-oss/engram/internal/ident"
)

// MemStore keeps records in process memory. Contents are lost on Close.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	ids     ident.IDGenerator
	clock   ident.Clock
}

// NewMemStore returns an empty in-memory store.
func NewMemStore(ids ident.IDGenerator, clock ident.Clock) *MemStore {
	return &MemStore{
		records: make(map[string]*Record),
		ids:     ids,
		clock:   clock,
	}
}

func (s *MemStore) Put(content string, properties map[string]interface{}) (*Record, error) {
	rec := &Record{
		ID:        s.ids.NewID(),
		Content:   content,
		CreatedAt: s.clock.Now(),
	}
	if len(properties) > 0 {
		rec.Properties = cloneProperties(properties)
	}

	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()

	return rec.Clone(), nil
}

func (s *MemStore) Get(id string) (*Record, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()

	if !ok {
		return nil, errors.New(errors.CodeMemoryNotFound, fmt.Sprintf("no memory with id %s", id))
	}
	return rec.Clone(), nil
}

func (s *MemStore) SetProperties(id string, properties map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return errors.New(errors.CodeMemoryNotFound, fmt.Sprintf("no memory with id %s", id))
	}
	if rec.Properties == nil {
		rec.Properties = make(map[string]interface{})
	}
	for k, v := range cloneProperties(properties) {
		rec.Properties[k] = v
	}
	return nil
}

func (s *MemStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

func (s *MemStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Iterate visits a snapshot of the records in creation order, so fn may
// call back into the store without deadlocking.
func (s *MemStore) Iterate(fn func(*Record) error) error {
	s.mu.RLock()
	snapshot := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		snapshot = append(snapshot, rec.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		if !snapshot[i].CreatedAt.Equal(snapshot[j].CreatedAt) {
			return snapshot[i].CreatedAt.Before(snapshot[j].CreatedAt)
		}
		return snapshot[i].ID < snapshot[j].ID
	})

	for _, rec := range snapshot {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemStore) Touch(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return errors.New(errors.CodeMemoryNotFound, fmt.Sprintf("no memory with id %s", id))
	}
	rec.LastAccessed = at
	rec.AccessCount++
	return nil
}

func (s *MemStore) HealthCheck() error {
	return nil
}

func (s *MemStore) Close() error {
	s.mu.Lock()
	s.records = make(map[string]*Record)
	s.mu.Unlock()
	return nil
}
