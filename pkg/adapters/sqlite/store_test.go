package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarche/fabula/pkg/adapters/sqlite"
	"github.com/tmarche/fabula/pkg/ports"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "saves.db"))
	require.NoError(t, err, "open store")
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunStorageAdapterContract(t, openTestStore(t))
}

func TestSQLiteStore_OpenRejectsEmptyPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves.db")
	ctx := context.Background()

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "slot-1", []byte(`{"chapter":"two"}`)))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	data, err := reopened.Load(ctx, "slot-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"chapter":"two"}`, string(data))

	keys, err := reopened.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"slot-1"}, keys)
}

func TestSQLiteStore_ListKeysIsSorted(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, store.Save(ctx, key, []byte("x")))
	}

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, keys)
}
