package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tmarche/fabula/pkg/domain"
	"github.com/tmarche/fabula/pkg/ports"
)

// Store implements ports.StorageAdapter in memory.
// Safe for concurrent use. Suited to tests and ephemeral playthroughs.
type Store struct {
	mu   sync.RWMutex
	data map[string]entry
}

type entry struct {
	payload   []byte
	updatedAt time.Time
}

var (
	_ ports.StorageAdapter   = (*Store)(nil)
	_ ports.MetadataProvider = (*Store)(nil)
)

// New creates a new in-memory store.
func New() *Store {
	return &Store{data: make(map[string]entry)}
}

// Save stores a copy of the payload so the caller's buffer stays detached.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = entry{
		payload:   append([]byte(nil), data...),
		updatedAt: time.Now(),
	}
	return nil
}

// Load returns a copy of the stored payload.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	en, ok := s.data[key]
	if !ok {
		return nil, domain.ErrSaveNotFound
	}
	return append([]byte(nil), en.payload...), nil
}

// Delete removes the save.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// ListKeys returns the stored save keys, sorted.
func (s *Store) ListKeys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// GetMetadata describes a save without copying its payload.
func (s *Store) GetMetadata(ctx context.Context, key string) (*ports.SaveMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	en, ok := s.data[key]
	if !ok {
		return nil, domain.ErrSaveNotFound
	}
	return &ports.SaveMetadata{
		Key:       key,
		Size:      int64(len(en.payload)),
		UpdatedAt: en.updatedAt,
	}, nil
}
