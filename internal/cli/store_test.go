package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBackend_RoundtripsThroughEncryption(t *testing.T) {
	backend, err := BuildBackend(Config{
		StoreKind: "memory",
		SaveKey:   strings.Repeat("ab", 32),
	})
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	data := []byte(`{"version":1}`)
	require.NoError(t, backend.Store.Save(ctx, "slot", data))

	loaded, err := backend.Store.Load(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, data, loaded)
}

func TestBuildBackend_RejectsBadSaveKey(t *testing.T) {
	_, err := BuildBackend(Config{StoreKind: "memory", SaveKey: "zz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FABULA_SAVE_KEY")
}

func TestBuildBackend_RejectsBadScrubPattern(t *testing.T) {
	_, err := BuildBackend(Config{StoreKind: "memory", ScrubFlags: []string{"("}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FABULA_SCRUB_FLAGS")
}

func TestBuildBackend_UnknownKind(t *testing.T) {
	_, err := BuildBackend(Config{StoreKind: "parchment"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parchment")
}
