// Package badger provides a save store backed by embedded BadgerDB. It
// suits long-running hosts that want crash-safe local saves without an
// external server; an empty path opens an in-memory database for tests.
package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	backend "github.com/dgraph-io/badger/v4"

	"github.com/tmarche/fabula/pkg/domain"
	"github.com/tmarche/fabula/pkg/ports"
)

// Store implements ports.StorageAdapter on a Badger key space.
type Store struct {
	db     *backend.DB
	prefix []byte
}

var _ ports.StorageAdapter = (*Store)(nil)

type Option func(*Store)

// WithPrefix sets the key prefix saves live under.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = []byte(prefix)
	}
}

// Open opens a Badger-backed store at path. An empty path opens an
// in-memory database whose contents vanish on Close.
func Open(path string, opts ...Option) (*Store, error) {
	var options backend.Options
	if path == "" {
		options = backend.DefaultOptions("").WithInMemory(true)
	} else {
		options = backend.DefaultOptions(path)
	}
	// Badger's own logging is chatty; the engine logs saves already.
	options = options.WithLogger(nil)

	db, err := backend.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return NewFromDB(db, opts...), nil
}

// NewFromDB wraps an existing database. Distinct prefixes let several
// stores share one database without seeing each other's saves.
func NewFromDB(db *backend.DB, opts ...Option) *Store {
	store := &Store{
		db:     db,
		prefix: []byte("save/"),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) fullKey(key string) []byte {
	return append(append([]byte(nil), s.prefix...), key...)
}

// Save persists the payload under the key.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *backend.Txn) error {
		return txn.Set(s.fullKey(key), data)
	})
	if err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

// Load retrieves the payload for a key.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(txn *backend.Txn) error {
		item, err := txn.Get(s.fullKey(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, backend.ErrKeyNotFound) {
			return nil, domain.ErrSaveNotFound
		}
		return nil, fmt.Errorf("load %q: %w", key, err)
	}
	return data, nil
}

// Delete removes the key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *backend.Txn) error {
		return txn.Delete(s.fullKey(key))
	})
	if err != nil && !errors.Is(err, backend.ErrKeyNotFound) {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// ListKeys returns all save keys under the prefix in lexical order.
func (s *Store) ListKeys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []string
	err := s.db.View(func(txn *backend.Txn) error {
		opts := backend.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = s.prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(s.prefix); it.ValidForPrefix(s.prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			keys = append(keys, string(key[len(s.prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the database. In-memory stores lose their contents.
func (s *Store) Close() error {
	return s.db.Close()
}
