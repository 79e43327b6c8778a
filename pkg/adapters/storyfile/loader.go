// Package storyfile loads stories from standalone JSON or YAML files.
// It is the zero-setup authoring path: one file, one story.
package storyfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tmarche/fabula/pkg/domain"
	"github.com/tmarche/fabula/pkg/ports"
	"github.com/tmarche/fabula/pkg/schema"
)

// Loader reads a single story file from disk.
type Loader struct {
	Path string
}

var _ ports.StoryLoader = (*Loader)(nil)

// New creates a loader for the given file path.
func New(path string) *Loader {
	return &Loader{Path: path}
}

// LoadStory reads and decodes the story file. The format follows the file
// extension; anything that is not .json is treated as YAML.
func (l *Loader) LoadStory(ctx context.Context) (*domain.Story, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("read story file: %w", err)
	}
	story, err := Parse(data, filepath.Ext(l.Path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.Path, err)
	}
	return story, nil
}

// Parse decodes story data in the format implied by ext. Both formats are
// decoded into the same weakly typed map shape so YAML and JSON stories
// behave identically.
func Parse(data []byte, ext string) (*domain.Story, error) {
	raw := make(map[string]any)
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse story JSON: %w", err)
		}
	default:
		// YAML is a superset of JSON, so it is the fallback for every
		// other extension.
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse story YAML: %w", err)
		}
	}
	return schema.StoryFromMap(raw)
}
