package saves

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/tmarche/fabula/internal/logging"
	"github.com/tmarche/fabula/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed holder can wedge a distributed
// slot lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count for one slot.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to save slots. Locks are created on demand and
// garbage collected by reference counting, so idle slots cost nothing.
type Manager struct {
	store ports.StorageAdapter

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker extends slot locking across hosts sharing the same backend.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for deferred errors.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a save manager over the given storage adapter.
func NewManager(store ports.StorageAdapter, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must Lock entry.mu and call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and drops the entry at zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// WithLock executes fn while holding the slot lock, and the distributed
// lock too when one is configured.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"save_key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Save persists the payload under the slot lock.
func (m *Manager) Save(ctx context.Context, key string, data []byte) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.store.Save(ctx, key, data)
	})
}

// Load retrieves the payload under the slot lock.
func (m *Manager) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		var err error
		data, err = m.store.Load(ctx, key)
		return err
	})
	return data, err
}

// Delete removes the slot under its lock.
func (m *Manager) Delete(ctx context.Context, key string) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.store.Delete(ctx, key)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.ListKeys(ctx)
}

// Metadata reports slot metadata. Backends without metadata support fall
// back to a full Load, leaving UpdatedAt zero.
func (m *Manager) Metadata(ctx context.Context, key string) (*ports.SaveMetadata, error) {
	if provider, ok := m.store.(ports.MetadataProvider); ok {
		return provider.GetMetadata(ctx, key)
	}

	data, err := m.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return &ports.SaveMetadata{
		Key:  key,
		Size: int64(len(data)),
	}, nil
}

// Store returns the underlying storage adapter.
func (m *Manager) Store() ports.StorageAdapter {
	return m.store
}
