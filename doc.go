/*
Package fabula is a narrative-state engine for branching, choice-driven
interactive stories: text adventures, visual novels, dialogue trees and
game tutorials.

It separates the authored story graph (nodes, choices, chapters) from the
playthrough state (current node, flags, history), so one loaded story can
drive any number of independent playthroughs.

# Concept

A story is a directed graph of nodes connected by player choices. The
engine owns every transition: it gates choices on flag requirements and
custom conditions, merges choice effects into the flags, tracks history,
and routes between chapter flows at branch points. The host owns I/O and
rendering. Storage, locking and loading sit behind small ports, so saves
can live in memory, on disk, in SQLite, Redis or Badger without the core
noticing.

# Key Features

  - Deterministic transitions: the same state and choice always produce
    the same next state.
  - Conditional choices: flag requirements, rich requirement kinds and
    registered predicates gate what the player sees.
  - Chapters and flows with authored, dynamic and weighted branch points.
  - Undo, redo, reset, and throttled autosave checkpoints.
  - Checksummed, versioned save envelopes portable across storage
    backends.

# Usage

Open a story from a YAML or JSON file (or a Loam directory), then loop:
read the current node, present its available choices, select one.

	package main

	import (
		"fmt"
		"log"

		"github.com/tmarche/fabula"
	)

	func main() {
		eng, err := fabula.Open("./story.yaml")
		if err != nil {
			log.Fatal(err)
		}
		defer eng.Close()

		for !eng.IsEnding() {
			node := eng.CurrentNode()
			fmt.Println(node.Text)

			choices := eng.AvailableChoices()
			for i, c := range choices {
				fmt.Printf("%d. %s\n", i+1, c.Text)
			}

			// In a real app this index comes from the player.
			if err := eng.SelectChoiceByIndex(0); err != nil {
				log.Fatal(err)
			}
		}
		fmt.Println(eng.CurrentNode().Text)
	}

Saving and loading round-trips the full playthrough, checkpoints
included:

	ctx := context.Background()
	if err := eng.Save(ctx, "slot-1"); err != nil {
		log.Fatal(err)
	}
	// ... later, possibly in another process:
	if err := eng.Load(ctx, "slot-1"); err != nil {
		log.Fatal(err)
	}
*/
package fabula
