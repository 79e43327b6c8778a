package ports

import (
	"context"

	"github.com/tmarche/fabula/pkg/domain"
)

// StoryLoader defines how the engine obtains a story graph.
// This decouples the core from the authoring format (YAML, JSON, markdown
// directories, in-memory fixtures). Loaders return the parsed graph; load
// validation happens in the engine so every source is checked the same way.
type StoryLoader interface {
	// LoadStory reads and parses the complete story graph.
	LoadStory(ctx context.Context) (*domain.Story, error)
}

// Watchable is an optional loader capability: sources that can report
// changes implement it so hosts can hot-reload the story while authoring.
type Watchable interface {
	// Watch emits an identifier per changed source until ctx is cancelled.
	// The channel closes when watching stops.
	Watch(ctx context.Context) (<-chan string, error)
}
