package ports

import (
	"context"
	"time"
)

// StorageAdapter defines the interface for persisting serialized saves.
// Adapters treat the payload as opaque bytes; envelope encoding, checksums
// and versioning belong to the schema layer above.
type StorageAdapter interface {
	// Save persists the data under the given key, replacing any previous
	// value atomically.
	Save(ctx context.Context, key string, data []byte) error

	// Load retrieves the data for a key.
	// Returns domain.ErrSaveNotFound if the key does not exist.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes the data for a key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// ListKeys returns every stored save key.
	ListKeys(ctx context.Context) ([]string, error)
}

// SaveMetadata describes a stored save without loading its payload.
type SaveMetadata struct {
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MetadataProvider is an optional extension for adapters that can describe
// saves cheaply. Callers type-assert; adapters without it fall back to a
// full Load.
type MetadataProvider interface {
	// GetMetadata describes the save under the given key.
	// Returns domain.ErrSaveNotFound if the key does not exist.
	GetMetadata(ctx context.Context, key string) (*SaveMetadata, error)
}
