package tenant

import (
	"context"
	"sync"
)

// MemoryStore keeps tenants in process memory.  Records are lost on
// restart and are not shared between processes.
type MemoryStore struct {
	mu    sync.RWMutex
	order []string // ids, insertion order
	byID  map[string]Tenant
}

// NewMemoryStore returns an empty directory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Tenant)}
}

// Insert adds t keyed by ID.  Reusing an ID replaces the earlier record in
// place; no check is made on Domain.
func (s *MemoryStore) Insert(_ context.Context, t Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	s.byID[t.ID] = t
	return nil
}

// ByDomain scans in insertion order and returns the first match.
func (s *MemoryStore) ByDomain(_ context.Context, domain string) (Tenant, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if t := s.byID[id]; t.Domain == domain {
			return t, true, nil
		}
	}
	return Tenant{}, false, nil
}

// All returns every record in insertion order.
func (s *MemoryStore) All(_ context.Context) ([]Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Tenant, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}
