package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"

	"github.com/tmarche/fabula/pkg/adapters/loamstory"
)

// starterDocs is the scaffolded story: a header plus four nodes showing
// choices, flag effects, a gated choice and an ending. Written in order so
// repeated runs produce identical directories.
var starterDocs = []core.Document{
	{
		ID: loamstory.StoryDocID + ".md",
		Content: `---
title: The Lighthouse Keeper
initialNodeId: shore
---
`,
	},
	{
		ID: "shore.md",
		Content: `---
choices:
  - text: Climb to the lamp room
    to: lamp
  - text: Search the beach
    to: beach
---
The lighthouse stands dark against the storm. Somewhere above, the lamp has gone out.`,
	},
	{
		ID: "beach.md",
		Content: `---
choices:
  - text: Take the lantern
    to: shore
    effects:
      lantern: true
  - text: Leave it
    to: shore
---
A brass lantern lies half-buried in the sand, still warm.`,
	},
	{
		ID: "lamp.md",
		Content: `---
choices:
  - text: Light the lamp
    to: lit
    require:
      lantern: true
  - text: Climb back down
    to: shore
---
The lamp room is cold and dark. The great lens waits for a flame.`,
	},
	{
		ID: "lit.md",
		Content: `---
---
The beam sweeps out across the water. Far out, a ship answers with its horn.`,
	},
}

// RunNew scaffolds a playable starter story at dir, one Markdown document
// per node. It refuses to touch a directory that already holds a story.
func RunNew(dir string) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("invalid target path: %w", err)
	}
	if _, err := os.Stat(filepath.Join(absPath, loamstory.StoryDocID+".md")); err == nil {
		return fmt.Errorf("%s already contains a story", dir)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	repo, err := loam.Init(absPath, loam.WithVersioning(false))
	if err != nil {
		return fmt.Errorf("failed to initialize loam: %w", err)
	}

	ctx := context.Background()
	for _, doc := range starterDocs {
		if err := repo.Save(ctx, doc); err != nil {
			return fmt.Errorf("failed to write %s: %w", doc.ID, err)
		}
	}

	fmt.Printf("Scaffolded %q in %s\n", "The Lighthouse Keeper", dir)
	fmt.Printf("Play it with: fabula play %s\n", dir)
	return nil
}
