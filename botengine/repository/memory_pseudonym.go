package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/emundo/emubot/botengine/domain"
)

// MemoryPseudonymStore keeps pseudonyms in process memory. Mappings are lost
// on restart; use the Valkey or SQL store when ids must survive.
type MemoryPseudonymStore struct {
	mu         sync.RWMutex
	byPlatform map[string]domain.PseudonymEntry
	byInternal map[string]string
}

func NewMemoryPseudonymStore() *MemoryPseudonymStore {
	return &MemoryPseudonymStore{
		byPlatform: make(map[string]domain.PseudonymEntry),
		byInternal: make(map[string]string),
	}
}

func (s *MemoryPseudonymStore) InternalID(_ context.Context, platformID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byPlatform[platformID].InternalID, nil
}

func (s *MemoryPseudonymStore) PlatformID(_ context.Context, internalID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byInternal[internalID], nil
}

func (s *MemoryPseudonymStore) Save(_ context.Context, entry domain.PseudonymEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byPlatform[entry.PlatformID]; ok {
		delete(s.byInternal, old.InternalID)
	}
	s.byPlatform[entry.PlatformID] = entry
	s.byInternal[entry.InternalID] = entry.PlatformID
	return nil
}

func (s *MemoryPseudonymStore) SaveIfAbsent(_ context.Context, entry domain.PseudonymEntry) (domain.PseudonymEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byPlatform[entry.PlatformID]; ok {
		return existing, nil
	}
	s.byPlatform[entry.PlatformID] = entry
	s.byInternal[entry.InternalID] = entry.PlatformID
	return entry, nil
}

func (s *MemoryPseudonymStore) Delete(_ context.Context, platformID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byPlatform[platformID]; ok {
		delete(s.byInternal, old.InternalID)
		delete(s.byPlatform, platformID)
	}
	return nil
}

// List returns all mappings ordered by creation time.
func (s *MemoryPseudonymStore) List(_ context.Context) ([]domain.PseudonymEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.PseudonymEntry, 0, len(s.byPlatform))
	for _, e := range s.byPlatform {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}
