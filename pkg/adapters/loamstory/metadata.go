package loamstory

import (
	"github.com/tmarche/fabula/pkg/domain"
)

// StoryDocID is the reserved document ID carrying story-level metadata:
// title, initial node and the chapter structure. Every other document in
// the repository is one node.
const StoryDocID = "story"

// DocMetadata is the frontmatter shape shared by all documents in a story
// repository. Node documents use the node fields; the story document uses
// the header fields. Keys use "mapstructure" tags so Markdown frontmatter,
// YAML and JSON documents all decode the same way.
type DocMetadata struct {
	ID      string            `json:"id" mapstructure:"id"`
	Text    string            `json:"text" mapstructure:"text"`
	Choices []ChoiceMetadata  `json:"choices" mapstructure:"choices"`
	Meta    map[string]string `json:"meta" mapstructure:"meta"`

	// Header fields, honored only on the story document.
	Title         string           `json:"title" mapstructure:"title"`
	InitialNodeID string           `json:"initialNodeId" mapstructure:"initialNodeId"`
	Chapters      []domain.Chapter `json:"chapters" mapstructure:"chapters"`
}

// ChoiceMetadata is a choice as authored in frontmatter. It accepts both
// the short keys (to, effects, require) and the long domain keys, so hand
// written stories stay terse while exported ones round-trip.
type ChoiceMetadata struct {
	Text       string `json:"text" mapstructure:"text"`
	To         string `json:"to" mapstructure:"to"`
	NextNodeID string `json:"nextNodeId" mapstructure:"nextNodeId"`

	Effects     map[string]any `json:"effects" mapstructure:"effects"`
	FlagEffects map[string]any `json:"flagEffects" mapstructure:"flagEffects"`

	Require          map[string]any `json:"require" mapstructure:"require"`
	FlagRequirements map[string]any `json:"flagRequirements" mapstructure:"flagRequirements"`

	Requirements []domain.Requirement `json:"requirements" mapstructure:"requirements"`
	Enabled      *bool                `json:"enabled" mapstructure:"enabled"`
	Condition    string               `json:"condition" mapstructure:"condition"`
}

// toDomain converts the authored choice, preferring the short keys.
func (c ChoiceMetadata) toDomain() domain.Choice {
	next := c.To
	if next == "" {
		next = c.NextNodeID
	}
	effects := c.FlagEffects
	if effects == nil {
		effects = c.Effects
	}
	requires := c.FlagRequirements
	if requires == nil {
		requires = c.Require
	}
	return domain.Choice{
		Text:             c.Text,
		NextNodeID:       next,
		FlagEffects:      effects,
		FlagRequirements: requires,
		Requirements:     c.Requirements,
		Enabled:          c.Enabled,
		Condition:        c.Condition,
	}
}
