package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarche/fabula/pkg/adapters/redis"
	"github.com/tmarche/fabula/pkg/domain"
	"github.com/tmarche/fabula/pkg/ports"
)

func newTestClient(t *testing.T) *backend.Client {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	t.Cleanup(mr.Close)

	return backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
}

func TestRedisStore_Contract(t *testing.T) {
	client := newTestClient(t)

	store := redis.NewFromClient(client)
	ports.RunStorageAdapterContract(t, store)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	store := redis.NewFromClient(client, redis.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "fleeting", []byte(`{"payload":true}`)))

	// Still there inside the window.
	data, err := store.Load(ctx, "fleeting")
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	// Past the window miniredis drops the value key.
	mr.FastForward(2 * time.Minute)

	_, err = store.Load(ctx, "fleeting")
	assert.ErrorIs(t, err, domain.ErrSaveNotFound)
}

func TestRedisStore_ListKeysPrunesStaleIndex(t *testing.T) {
	client := newTestClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("test:save:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "alive", []byte("a")))

	// A save whose value key already expired leaves only its index entry
	// behind. Plant one directly with a score in the past.
	err := client.ZAdd(ctx, "test:save:index", backend.Z{
		Score:  float64(time.Now().Add(-time.Hour).Unix()),
		Member: "stale",
	}).Err()
	require.NoError(t, err)

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, "alive")
	assert.NotContains(t, keys, "stale", "expired index entries should be pruned on list")
}
