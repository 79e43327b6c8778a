// Package loamstory loads stories from a Loam repository: one Markdown
// document per node with the node text as the body, plus a reserved story
// document carrying the title, initial node and chapter structure. It is
// the authoring path for stories too large to live in a single file.
package loamstory

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"

	"github.com/tmarche/fabula/pkg/domain"
	"github.com/tmarche/fabula/pkg/ports"
)

// Loader adapts a Loam repository to the ports.StoryLoader interface.
type Loader struct {
	Repo *loam.TypedRepository[DocMetadata]
}

var (
	_ ports.StoryLoader = (*Loader)(nil)
	_ ports.Watchable   = (*Loader)(nil)
)

// New creates a loader over an existing typed repository.
func New(repo *loam.TypedRepository[DocMetadata]) *Loader {
	return &Loader{Repo: repo}
}

// Open initializes a Loam repository at dir and returns a loader over it.
// Strict mode keeps numeric frontmatter as json.Number across the Markdown
// and JSON adapters; read-only mode stops Loam from sandboxing the files,
// since the engine only ever reads the graph.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid story path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[DocMetadata](repo)), nil
}

// LoadStory assembles the story from every document in the repository.
// Graph validation happens in the engine; the loader only shapes data.
func (l *Loader) LoadStory(ctx context.Context) (*domain.Story, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	story := &domain.Story{}
	seen := make(map[string]string)
	headerFound := false
	var nodes []domain.Node

	for _, doc := range docs {
		// Use the ID from metadata if available, otherwise the filename.
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("id %q is defined in both %q and %q", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID

		if id == StoryDocID {
			headerFound = true
			story.Title = doc.Data.Title
			story.InitialNodeID = doc.Data.InitialNodeID
			story.Chapters = doc.Data.Chapters
			story.Meta = doc.Data.Meta
			continue
		}

		nodes = append(nodes, buildNode(id, doc.Data, doc.Content))
	}

	if !headerFound {
		return nil, fmt.Errorf("story document %q not found in repository", StoryDocID)
	}

	// Repository listing order depends on the filesystem; sort so the same
	// directory always produces the same story.
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	story.Nodes = nodes

	return story, nil
}

// buildNode shapes one document into a node. The Markdown body is the node
// text unless the frontmatter sets text explicitly.
func buildNode(id string, meta DocMetadata, content string) domain.Node {
	text := meta.Text
	if text == "" {
		text = strings.TrimSpace(content)
	}

	node := domain.Node{
		ID:   id,
		Text: text,
		Meta: meta.Meta,
	}
	for _, choice := range meta.Choices {
		node.Choices = append(node.Choices, choice.toDomain())
	}
	return node
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable over Loam's repository watcher. Events
// carry the changed document ID; callers reload the whole story, Loam's own
// debounce coalesces edit bursts.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
