package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tmarche/fabula/pkg/domain"
	"github.com/tmarche/fabula/pkg/ports"
)

// Store implements ports.StorageAdapter on the local filesystem.
// Each save is one JSON envelope file in a configured directory. Writes go
// through a temp file with fsync and rename, so a crash mid-write can never
// leave a truncated save behind.
type Store struct {
	BasePath string
}

var (
	_ ports.StorageAdapter   = (*Store)(nil)
	_ ports.MetadataProvider = (*Store)(nil)
)

const saveExt = ".json"

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".fabula/saves".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".fabula", "saves")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("save key cannot be empty")
	}
	// Keys are file names; keep them from escaping the save directory.
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid save key %q", key)
	}
	return filepath.Join(s.BasePath, key+saveExt), nil
}

// Save persists the payload atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it
// to the destination.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	destPath, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure save directory: %w", err)
	}

	// Same directory as the destination so the rename stays on one
	// filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+key+"-*"+saveExt)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows Rename fails if the destination exists, so remove it
	// first. The delete+rename window is acceptable against the
	// alternative of a partially written save.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to replace existing save: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move save into place: %w", err)
	}
	return nil
}

// Load reads the save file for a key.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSaveNotFound
		}
		return nil, fmt.Errorf("failed to read save file: %w", err)
	}
	return data, nil
}

// Delete removes the save file. A missing file is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete save file: %w", err)
	}
	return nil
}

// ListKeys returns the saves present in the directory, sorted. Temp files
// from in-flight writes are excluded.
func (s *Store) ListKeys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read save directory: %w", err)
	}

	var keys []string
	for _, en := range entries {
		name := en.Name()
		if en.IsDir() || !strings.HasSuffix(name, saveExt) || strings.HasPrefix(name, "tmp-") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, saveExt))
	}
	sort.Strings(keys)
	return keys, nil
}

// GetMetadata stats the save file without reading it.
func (s *Store) GetMetadata(ctx context.Context, key string) (*ports.SaveMetadata, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSaveNotFound
		}
		return nil, fmt.Errorf("failed to stat save file: %w", err)
	}
	return &ports.SaveMetadata{
		Key:       key,
		Size:      info.Size(),
		UpdatedAt: info.ModTime(),
	}, nil
}
