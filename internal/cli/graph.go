package cli

import (
	"context"
	"fmt"

	"github.com/tmarche/fabula/internal/presentation/graph"
	"github.com/tmarche/fabula/pkg/schema"
)

// GraphOptions carries the per-invocation settings of the graph command.
type GraphOptions struct {
	StoryPath string

	// SaveKey, when set, overlays that save's visited trail and current
	// position onto the graph.
	SaveKey string

	Config Config
}

// RunGraph prints the story as a Mermaid flowchart on stdout, ready to paste
// into anything that renders Mermaid.
func RunGraph(opts GraphOptions) error {
	ctx := context.Background()
	story, err := loadStory(ctx, opts.StoryPath)
	if err != nil {
		return err
	}

	var overlay *graph.Overlay
	if opts.SaveKey != "" {
		backend, err := BuildBackend(opts.Config)
		if err != nil {
			return err
		}
		defer backend.Close()

		data, err := backend.Store.Load(ctx, opts.SaveKey)
		if err != nil {
			return fmt.Errorf("failed to load save %q: %w", opts.SaveKey, err)
		}
		env, err := schema.Decode(data)
		if err != nil {
			return err
		}
		payload, err := schema.Deserialize(env, schema.DecodeOptions{ValidateChecksum: true})
		if err != nil {
			return err
		}
		overlay = &graph.Overlay{
			VisitedNodes: payload.History,
			CurrentNode:  payload.CurrentNodeID,
		}
	}

	fmt.Print(graph.GenerateMermaid(story, overlay))
	return nil
}
