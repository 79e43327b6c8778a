package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarche/fabula/pkg/adapters/memory"
	"github.com/tmarche/fabula/pkg/domain"
	"github.com/tmarche/fabula/pkg/persistence/middleware"
	"github.com/tmarche/fabula/pkg/schema"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func envelopeBytes(t *testing.T, flags map[string]any) []byte {
	t.Helper()
	env, err := schema.Serialize(schema.Payload{
		CurrentNodeID: "shore",
		Flags:         flags,
		History:       []string{"shore"},
	}, "test")
	require.NoError(t, err)

	data, err := schema.Encode(env)
	require.NoError(t, err)
	return data
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.New()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secure := mw(underlying)

	ctx := context.Background()
	data := envelopeBytes(t, map[string]any{"secret": "my-secret-sauce"})

	require.NoError(t, secure.Save(ctx, "slot", data))

	// The underlying store must hold ciphertext, not a readable envelope.
	raw, err := underlying.Load(ctx, "slot")
	require.NoError(t, err)
	assert.NotEqual(t, data, raw)
	_, err = schema.Decode(raw)
	assert.Error(t, err)

	// Load through the middleware decrypts back to the original bytes.
	loaded, err := secure.Load(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, data, loaded)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.New()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	ctx := context.Background()
	data := envelopeBytes(t, map[string]any{"data": "encrypted-with-old-key"})

	// Save with the old key.
	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, oldStore.Save(ctx, "slot", data))

	// Load with the new key active and the old key as fallback.
	rotated := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := rotated.Load(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, data, loaded)

	// Saving again re-encrypts under the new key, so the old middleware
	// can no longer read it.
	require.NoError(t, rotated.Save(ctx, "slot", loaded))
	_, err = oldStore.Load(ctx, "slot")
	require.Error(t, err)
}

func TestEncryptionMiddleware_MissingKeyPassesThrough(t *testing.T) {
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(memory.New())

	_, err := secure.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrSaveNotFound)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}
