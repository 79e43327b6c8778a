/*
Package dsl provides a fluent builder for constructing stories in Go code
instead of story files. This is useful for generated stories, unit tests,
and anywhere IDE autocompletion and type checking beat editing YAML.

Example usage:

	b := dsl.New("The Lighthouse Keeper")

	b.Node("shore").
		Text("The lighthouse stands dark against the storm.").
		Choice("Climb to the lamp room", "lamp").
		Choice("Search the beach", "beach")

	b.Node("beach").
		Text("A brass lantern lies half-buried in the sand.").
		Choice("Take the lantern", "shore", dsl.Effect("lantern", true)).
		Choice("Leave it", "shore")

	b.Node("lamp").
		Text("The great lens waits for a flame.").
		Choice("Light the lamp", "lit", dsl.Require("lantern", true)).
		Choice("Climb back down", "shore")

	b.Node("lit").
		Text("The beam sweeps out across the water.")

	story, err := b.Build()
	// ... pass story to fabula.New(...)

Build checks only what the builder itself knows (at least one node, a
defined initial node); full graph validation happens when the story is
handed to the engine.
*/
package dsl
