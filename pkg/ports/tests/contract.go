package tests

import (
	"context"
	"testing"

	"github.com/tmarche/fabula/pkg/ports"
)

// StoryLoaderContractTest is a reusable suite that verifies if a loader
// complies with ports.StoryLoader: the source must parse into a story whose
// initial node and node set match the fixture the caller prepared.
func StoryLoaderContractTest(t *testing.T, loader ports.StoryLoader, wantInitial string, wantNodeIDs []string) {
	t.Helper()
	ctx := context.Background()

	story, err := loader.LoadStory(ctx)
	if err != nil {
		t.Fatalf("unexpected error loading story: %v", err)
	}
	if story == nil {
		t.Fatal("LoadStory returned a nil story without error")
	}

	t.Run("InitialNode", func(t *testing.T) {
		if story.InitialNodeID != wantInitial {
			t.Errorf("initial node = %q, want %q", story.InitialNodeID, wantInitial)
		}
	})

	t.Run("NodeSet", func(t *testing.T) {
		if len(story.Nodes) != len(wantNodeIDs) {
			t.Errorf("expected %d nodes, got %d", len(wantNodeIDs), len(story.Nodes))
		}

		lookup := make(map[string]bool, len(story.Nodes))
		for _, n := range story.Nodes {
			lookup[n.ID] = true
		}
		for _, id := range wantNodeIDs {
			if !lookup[id] {
				t.Errorf("node %s missing from parsed story", id)
			}
		}
	})
}
