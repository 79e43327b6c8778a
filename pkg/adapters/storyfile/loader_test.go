package storyfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarche/fabula/pkg/adapters/storyfile"
	"github.com/tmarche/fabula/pkg/ports/tests"
)

const yamlStory = `
title: The Crossing
initialNodeId: start
nodes:
  - id: start
    text: You stand at the river.
    choices:
      - text: Wade in
        nextNodeId: river
        flagEffects:
          wet: true
      - text: Walk along the bank
        nextNodeId: bank
  - id: river
    text: The current is stronger than it looked.
  - id: bank
    text: The bank narrows into reeds.
chapters:
  - id: ch1
    flows:
      - id: main
        nodeIds: [start, river, bank]
`

const jsonStory = `{
  "title": "The Crossing",
  "initialNodeId": "start",
  "nodes": [
    {
      "id": "start",
      "text": "You stand at the river.",
      "choices": [
        {"text": "Wade in", "nextNodeId": "river", "flagEffects": {"wet": true}}
      ]
    },
    {"id": "river", "text": "The current is stronger than it looked."}
  ]
}`

func writeStory(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoader_Contract(t *testing.T) {
	path := writeStory(t, "crossing.yaml", yamlStory)
	tests.StoryLoaderContractTest(t, storyfile.New(path), "start", []string{"start", "river", "bank"})
}

func TestLoadStory_YAML(t *testing.T) {
	loader := storyfile.New(writeStory(t, "crossing.yaml", yamlStory))

	story, err := loader.LoadStory(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "The Crossing", story.Title)
	assert.Equal(t, "start", story.InitialNodeID)
	require.Len(t, story.Nodes, 3)

	start := story.Node("start")
	require.NotNil(t, start)
	require.Len(t, start.Choices, 2)
	assert.Equal(t, "river", start.Choices[0].NextNodeID)
	assert.Equal(t, map[string]any{"wet": true}, start.Choices[0].FlagEffects)

	require.Len(t, story.Chapters, 1)
	assert.Equal(t, []string{"start", "river", "bank"}, story.Chapters[0].Flows[0].NodeIDs)
}

func TestLoadStory_JSON(t *testing.T) {
	loader := storyfile.New(writeStory(t, "crossing.json", jsonStory))

	story, err := loader.LoadStory(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "start", story.InitialNodeID)
	require.NotNil(t, story.Node("river"))
}

func TestLoadStory_YMLExtensionFallsBackToYAML(t *testing.T) {
	loader := storyfile.New(writeStory(t, "crossing.yml", yamlStory))

	story, err := loader.LoadStory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "The Crossing", story.Title)
}

func TestLoadStory_MissingFile(t *testing.T) {
	loader := storyfile.New(filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := loader.LoadStory(context.Background())
	assert.Error(t, err)
}

func TestLoadStory_MalformedJSON(t *testing.T) {
	loader := storyfile.New(writeStory(t, "broken.json", `{"title": `))

	_, err := loader.LoadStory(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse story JSON")
}
