package cli

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tmarche/fabula/pkg/adapters/badger"
	"github.com/tmarche/fabula/pkg/adapters/file"
	"github.com/tmarche/fabula/pkg/adapters/memory"
	"github.com/tmarche/fabula/pkg/adapters/redis"
	"github.com/tmarche/fabula/pkg/adapters/sqlite"
	"github.com/tmarche/fabula/pkg/persistence/middleware"
	"github.com/tmarche/fabula/pkg/ports"
)

// Backend bundles a configured storage adapter with its optional lock and
// teardown.
type Backend struct {
	Store  ports.StorageAdapter
	Locker ports.DistributedLocker

	closer func() error
}

// Close releases whatever the backend holds open. Safe on backends with
// nothing to release.
func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

// BuildBackend constructs the storage adapter named by cfg.StoreKind,
// wrapped in scrubbing and encryption middleware when configured. The redis
// backend additionally wires a distributed save lock over the same
// connection, for saves shared between hosts.
func BuildBackend(cfg Config) (*Backend, error) {
	b, err := buildBaseBackend(cfg)
	if err != nil {
		return nil, err
	}

	// Encryption innermost, scrubbing outermost: flags are masked before
	// the envelope is sealed.
	if cfg.SaveKey != "" {
		key, err := hex.DecodeString(cfg.SaveKey)
		if err != nil || len(key) != 32 {
			_ = b.Close()
			return nil, fmt.Errorf("FABULA_SAVE_KEY must be 64 hex characters (32 bytes)")
		}
		b.Store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})(b.Store)
	}
	if len(cfg.ScrubFlags) > 0 {
		for _, p := range cfg.ScrubFlags {
			if _, err := regexp.Compile(p); err != nil {
				_ = b.Close()
				return nil, fmt.Errorf("invalid FABULA_SCRUB_FLAGS pattern %q: %w", p, err)
			}
		}
		b.Store = middleware.NewPIIMiddleware(cfg.ScrubFlags)(b.Store)
	}

	return b, nil
}

func buildBaseBackend(cfg Config) (*Backend, error) {
	switch cfg.StoreKind {
	case "", "file":
		return &Backend{Store: file.New(cfg.StorePath)}, nil

	case "memory":
		return &Backend{Store: memory.New()}, nil

	case "sqlite":
		path := cfg.StorePath
		if path == "" {
			path = filepath.Join(".fabula", "saves.db")
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return &Backend{Store: store, closer: store.Close}, nil

	case "badger":
		path := cfg.StorePath
		if path == "" {
			path = filepath.Join(".fabula", "badger")
		}
		store, err := badger.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		return &Backend{Store: store, closer: store.Close}, nil

	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store := redis.NewFromClient(client)
		return &Backend{
			Store:  store,
			Locker: redis.NewLocker(client, ""),
			closer: store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store kind %q (want memory, file, sqlite, badger or redis)", cfg.StoreKind)
	}
}
