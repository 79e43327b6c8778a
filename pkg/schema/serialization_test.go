package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarche/fabula/pkg/domain"
)

func samplePayload() Payload {
	state := domain.NewState("start")
	state.Flags["gold"] = 12
	state.Flags["inventory"] = []any{"sword"}
	state.History = append(state.History, "cave")
	state.CurrentNodeID = "cave"
	return NewPayload(state)
}

func TestSerializeRoundTrip(t *testing.T) {
	payload := samplePayload()

	env, err := Serialize(payload, "test")
	require.NoError(t, err)
	assert.Equal(t, Version, env.Version)
	assert.NotEmpty(t, env.Checksum)

	data, err := Encode(env)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	restored, err := Deserialize(decoded, DecodeOptions{ValidateChecksum: true})
	require.NoError(t, err)

	assert.Equal(t, "cave", restored.CurrentNodeID)
	assert.Equal(t, []string{"start", "cave"}, restored.History)
	// JSON turns ints into float64; the value survives, the Go type does not.
	assert.EqualValues(t, 12, restored.Flags["gold"])

	state := restored.State()
	assert.Equal(t, "cave", state.CurrentNodeID)
}

func TestDeserializeDetectsTampering(t *testing.T) {
	env, err := Serialize(samplePayload(), "test")
	require.NoError(t, err)

	env.Payload.Flags["gold"] = 9999

	_, err = Deserialize(env, DecodeOptions{ValidateChecksum: true})
	require.Error(t, err)

	var integrity *domain.IntegrityError
	require.True(t, errors.As(err, &integrity), "expected IntegrityError, got %T", err)
	assert.NotEqual(t, integrity.Expected, integrity.Actual)
}

func TestDeserializeOptimisticSkipsChecksum(t *testing.T) {
	env, err := Serialize(samplePayload(), "test")
	require.NoError(t, err)

	env.Payload.Flags["gold"] = 9999

	restored, err := Deserialize(env, DecodeOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 9999, restored.Flags["gold"])
}

func TestChecksumStableAcrossDecodeCycle(t *testing.T) {
	// A payload that went through JSON once (ints became floats) must still
	// hash to the same checksum, otherwise every load would flag corruption.
	env, err := Serialize(samplePayload(), "test")
	require.NoError(t, err)

	data, err := Encode(env)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	require.NoError(t, ValidateChecksum(decoded))
}

func TestDeserializeRejectsNewerVersion(t *testing.T) {
	env, err := Serialize(samplePayload(), "test")
	require.NoError(t, err)

	env.Version = Version + 1

	_, err = Deserialize(env, DecodeOptions{})
	require.Error(t, err)
}
