package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarche/fabula/internal/validator"
	"github.com/tmarche/fabula/pkg/adapters/loamstory"
)

func TestRunNew_ScaffoldsPlayableStory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "starter")

	require.NoError(t, RunNew(dir))

	loader, err := loamstory.Open(dir)
	require.NoError(t, err)

	story, err := loader.LoadStory(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "The Lighthouse Keeper", story.Title)
	require.NotNil(t, story.Node(story.InitialNodeID))

	// The scaffold has to survive its own validator.
	result, err := validator.ValidateStory(story)
	require.NoError(t, err)
	assert.Empty(t, result.Unreachable)
}

func TestRunNew_RefusesExistingStory(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, RunNew(dir))

	err := RunNew(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already contains a story")
}
