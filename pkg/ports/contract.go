package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarche/fabula/pkg/domain"
)

// RunStorageAdapterContract runs a suite of tests to verify that a
// StorageAdapter implementation adheres to the defined interface contract.
func RunStorageAdapterContract(t *testing.T, adapter StorageAdapter) {
	ctx := context.Background()
	key := "contract-save-" + time.Now().Format("20060102150405.000")

	t.Run("Save and Load", func(t *testing.T) {
		payload := []byte(`{"currentNodeId":"start","flags":{"gold":3}}`)

		err := adapter.Save(ctx, key, payload)
		require.NoError(t, err, "Save should not return error")

		loaded, err := adapter.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, payload, loaded)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, adapter.Save(ctx, key, []byte("first")))
		require.NoError(t, adapter.Save(ctx, key, []byte("second")))

		loaded, err := adapter.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), loaded, "Load should return the latest payload")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := adapter.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrSaveNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, adapter.Save(ctx, key, []byte("doomed")))

		err := adapter.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = adapter.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSaveNotFound, "Load after Delete should return ErrSaveNotFound")

		assert.NoError(t, adapter.Delete(ctx, key), "Delete should be idempotent")
	})

	t.Run("ListKeys", func(t *testing.T) {
		key1 := key + "-1"
		key2 := key + "-2"
		require.NoError(t, adapter.Save(ctx, key1, []byte("one")))
		require.NoError(t, adapter.Save(ctx, key2, []byte("two")))

		defer func() {
			_ = adapter.Delete(ctx, key1)
			_ = adapter.Delete(ctx, key2)
		}()

		keys, err := adapter.ListKeys(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, key1)
		assert.Contains(t, keys, key2)
	})

	t.Run("Metadata", func(t *testing.T) {
		provider, ok := adapter.(MetadataProvider)
		if !ok {
			t.Skip("adapter does not expose metadata")
		}

		payload := []byte("metadata probe")
		require.NoError(t, adapter.Save(ctx, key, payload))
		defer func() { _ = adapter.Delete(ctx, key) }()

		meta, err := provider.GetMetadata(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, key, meta.Key)
		assert.EqualValues(t, len(payload), meta.Size)
		assert.WithinDuration(t, time.Now(), meta.UpdatedAt, time.Minute)

		_, err = provider.GetMetadata(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrSaveNotFound)
	})
}
