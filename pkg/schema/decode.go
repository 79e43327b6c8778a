package schema

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/tmarche/fabula/pkg/domain"
)

// StoryFromMap decodes the normalized story shape into a domain.Story.
// The map may come from JSON, YAML or markdown frontmatter; mapstructure
// gives all of them one decode path. Weak typing is enabled so YAML ints
// satisfy float fields like requirement bounds and option weights.
func StoryFromMap(data map[string]any) (*domain.Story, error) {
	var story domain.Story

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &story,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build story decoder: %w", err)
	}

	if err := decoder.Decode(normalizeKeys(data)); err != nil {
		return nil, fmt.Errorf("failed to decode story: %w", err)
	}

	return &story, nil
}

// normalizeKeys converts map[any]any trees (as produced by some YAML
// decoders) into map[string]any so mapstructure can walk them.
func normalizeKeys(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprintf("%v", k)] = normalizeKeys(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeKeys(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeKeys(item)
		}
		return out
	default:
		return v
	}
}
