package dsl

import (
	"fmt"

	"github.com/tmarche/fabula/pkg/domain"
)

// Builder manages the story construction.
type Builder struct {
	title string
	start string
	meta  map[string]string

	nodes map[string]*NodeBuilder
	order []string
}

// New creates a new story builder.
func New(title string) *Builder {
	return &Builder{
		title: title,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Start sets the initial node. Without it, the first node added is the
// initial node.
func (b *Builder) Start(id string) *Builder {
	b.start = id
	return b
}

// Meta attaches a story-level metadata entry.
func (b *Builder) Meta(key, value string) *Builder {
	if b.meta == nil {
		b.meta = make(map[string]string)
	}
	b.meta[key] = value
	return b
}

// Node creates a new node in the story.
// If the node already exists, it returns the existing builder.
func (b *Builder) Node(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			ID: id,
		},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Build compiles the story. Nodes keep their declaration order, so the same
// builder calls always produce the same story.
func (b *Builder) Build() (*domain.Story, error) {
	if len(b.order) == 0 {
		return nil, fmt.Errorf("story %q has no nodes", b.title)
	}

	start := b.start
	if start == "" {
		start = b.order[0]
	}
	if _, ok := b.nodes[start]; !ok {
		return nil, fmt.Errorf("initial node %q is not defined", start)
	}

	nodes := make([]domain.Node, 0, len(b.order))
	for _, id := range b.order {
		nodes = append(nodes, b.nodes[id].node)
	}

	return &domain.Story{
		Title:         b.title,
		InitialNodeID: start,
		Nodes:         nodes,
		Meta:          b.meta,
	}, nil
}
