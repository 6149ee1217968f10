package carelog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/kennelworks/go-care-cache/carestatus"
)

// MemStore is an in-memory Store used by tests and the demo. It mirrors
// BunStore semantics: descending timestamp order, created ids returned
// from Insert.
type MemStore struct {
	mu      sync.Mutex
	entries map[string]carestatus.CareLogEntry
	dogs    []carestatus.Dog
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{entries: map[string]carestatus.CareLogEntry{}}
}

// SeedDogs replaces the roster.
func (s *MemStore) SeedDogs(dogs ...carestatus.Dog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dogs = append([]carestatus.Dog(nil), dogs...)
}

// ListEntries returns entries matching the filter, newest first.
func (s *MemStore) ListEntries(_ context.Context, f Filter) ([]carestatus.CareLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []carestatus.CareLogEntry
	for _, e := range s.entries {
		if f.DogID != "" && e.DogID != f.DogID {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if !f.From.IsZero() && e.Timestamp.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !e.Timestamp.Before(f.To) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// Insert stores one entry, assigning an id when absent.
func (s *MemStore) Insert(_ context.Context, entry carestatus.CareLogEntry) (carestatus.CareLogEntry, error) {
	if err := entry.Validate(); err != nil {
		return carestatus.CareLogEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	s.entries[entry.ID] = entry
	return entry, nil
}

// Delete removes one entry by id.
func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("care log entry not found: %s", id)
	}
	delete(s.entries, id)
	return nil
}

// ListDogs returns the seeded roster.
func (s *MemStore) ListDogs(_ context.Context) ([]carestatus.Dog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]carestatus.Dog(nil), s.dogs...), nil
}

// Len reports the number of stored entries. Test helper.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
