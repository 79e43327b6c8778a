package badger_test

import (
	"context"
	"testing"

	backend "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarche/fabula/pkg/adapters/badger"
	"github.com/tmarche/fabula/pkg/ports"
)

func openTestStore(t *testing.T, opts ...badger.Option) *badger.Store {
	t.Helper()

	store, err := badger.Open("", opts...)
	require.NoError(t, err, "open in-memory store")
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestBadgerStore_Contract(t *testing.T) {
	ports.RunStorageAdapterContract(t, openTestStore(t))
}

func TestBadgerStore_SurvivesReopen(t *testing.T) {
	path := t.TempDir()
	ctx := context.Background()

	store, err := badger.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "slot-1", []byte("payload")))
	require.NoError(t, store.Close())

	reopened, err := badger.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	data, err := reopened.Load(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestBadgerStore_PrefixIsolatesKeySpaces(t *testing.T) {
	ctx := context.Background()

	db, err := backend.Open(backend.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	// Two stores over the same database must not see each other's saves.
	one := badger.NewFromDB(db, badger.WithPrefix("profile-1/"))
	two := badger.NewFromDB(db, badger.WithPrefix("profile-2/"))

	require.NoError(t, one.Save(ctx, "slot", []byte("a")))
	require.NoError(t, two.Save(ctx, "slot", []byte("b")))

	data, err := one.Load(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), data)

	keys, err := two.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"slot"}, keys)
}

func TestBadgerStore_ListKeysStripsPrefix(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"zeta", "alpha"} {
		require.NoError(t, store.Save(ctx, key, []byte("x")))
	}

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, keys)
}
