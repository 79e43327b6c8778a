package dsl

import "github.com/tmarche/fabula/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Text sets the narrative text of the node.
func (n *NodeBuilder) Text(text string) *NodeBuilder {
	n.node.Text = text
	return n
}

// Meta attaches a node-level metadata entry.
func (n *NodeBuilder) Meta(key, value string) *NodeBuilder {
	if n.node.Meta == nil {
		n.node.Meta = make(map[string]string)
	}
	n.node.Meta[key] = value
	return n
}

// Choice adds a choice leading to the target node. Options decorate the
// choice with effects and gates. A node with no choices is an ending.
func (n *NodeBuilder) Choice(text, target string, opts ...ChoiceOption) *NodeBuilder {
	choice := domain.Choice{
		Text:       text,
		NextNodeID: target,
	}
	for _, opt := range opts {
		opt(&choice)
	}
	n.node.Choices = append(n.node.Choices, choice)
	return n
}

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	return n.node
}

// ChoiceOption decorates a choice as it is added.
type ChoiceOption func(*domain.Choice)

// Effect sets a flag when the choice is taken.
func Effect(key string, value any) ChoiceOption {
	return func(c *domain.Choice) {
		if c.FlagEffects == nil {
			c.FlagEffects = make(map[string]any)
		}
		c.FlagEffects[key] = value
	}
}

// Require gates the choice on a flag holding the given value.
func Require(key string, value any) ChoiceOption {
	return func(c *domain.Choice) {
		if c.FlagRequirements == nil {
			c.FlagRequirements = make(map[string]any)
		}
		c.FlagRequirements[key] = value
	}
}

// Gate attaches structured requirements to the choice.
func Gate(reqs ...domain.Requirement) ChoiceOption {
	return func(c *domain.Choice) {
		c.Requirements = append(c.Requirements, reqs...)
	}
}

// When gates the choice on a named predicate registered with the engine.
func When(condition string) ChoiceOption {
	return func(c *domain.Choice) {
		c.Condition = condition
	}
}

// Disabled authors the choice switched off. It shows up in the full choice
// list but can never be taken.
func Disabled() ChoiceOption {
	return func(c *domain.Choice) {
		off := false
		c.Enabled = &off
	}
}
