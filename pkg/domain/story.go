package domain

// Story is the immutable narrative graph.
// It is validated once at load time and never mutated afterwards.
// All adjacency is expressed through node IDs, never object references,
// so a Story survives serialization without rewiring.
type Story struct {
	Title         string            `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	InitialNodeID string            `json:"initialNodeId" yaml:"initialNodeId" mapstructure:"initialNodeId"`
	Nodes         []Node            `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Chapters      []Chapter         `json:"chapters,omitempty" yaml:"chapters,omitempty" mapstructure:"chapters"`
	Meta          map[string]string `json:"meta,omitempty" yaml:"meta,omitempty" mapstructure:"meta"`
}

// Node represents a single narrative beat in the graph.
type Node struct {
	ID      string            `json:"id" yaml:"id" mapstructure:"id"`
	Text    string            `json:"text" yaml:"text" mapstructure:"text"`
	Choices []Choice          `json:"choices,omitempty" yaml:"choices,omitempty" mapstructure:"choices"`
	Meta    map[string]string `json:"meta,omitempty" yaml:"meta,omitempty" mapstructure:"meta"`
}

// IsEnding reports whether the node is a sink (no outgoing choices).
func (n *Node) IsEnding() bool {
	return len(n.Choices) == 0
}

// Choice is a player-selectable edge out of a Node.
type Choice struct {
	Text       string `json:"text" yaml:"text" mapstructure:"text"`
	NextNodeID string `json:"nextNodeId" yaml:"nextNodeId" mapstructure:"nextNodeId"`

	// FlagEffects are merged into the state flags when the choice commits.
	// The merge is shallow: each key overwrites as a whole (last write wins),
	// nested maps are replaced, not merged.
	FlagEffects map[string]any `json:"flagEffects,omitempty" yaml:"flagEffects,omitempty" mapstructure:"flagEffects"`

	// FlagRequirements is the shorthand gate: every key must be present in
	// the flags with a deep-equal value.
	FlagRequirements map[string]any `json:"flagRequirements,omitempty" yaml:"flagRequirements,omitempty" mapstructure:"flagRequirements"`

	// Requirements are the structured gates, ANDed together with
	// FlagRequirements and Condition.
	Requirements []Requirement `json:"requirements,omitempty" yaml:"requirements,omitempty" mapstructure:"requirements"`

	// Enabled is a static kill-switch set by authors. nil means enabled.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty" mapstructure:"enabled"`

	// Condition names a host-registered predicate evaluated against the flags.
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty" mapstructure:"condition"`
}

// Matches reports whether two choices refer to the same edge.
// Identity is (Text, NextNodeID); authoring formats carry no stable choice IDs.
func (c Choice) Matches(other Choice) bool {
	return c.Text == other.Text && c.NextNodeID == other.NextNodeID
}

// Node returns the node with the given ID, or nil if absent.
// The lookup is linear; the runtime builds an ID index once at construction
// and uses that on the hot path.
func (s *Story) Node(id string) *Node {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i]
		}
	}
	return nil
}

// Chapter returns the chapter with the given ID, or nil if absent.
func (s *Story) Chapter(id string) *Chapter {
	for i := range s.Chapters {
		if s.Chapters[i].ID == id {
			return &s.Chapters[i]
		}
	}
	return nil
}

// FlowByID searches every chapter for a flow with the given ID.
// Branch options may route across chapters, so flow resolution is global.
func (s *Story) FlowByID(id string) (*Chapter, *Flow) {
	for i := range s.Chapters {
		if f := s.Chapters[i].Flow(id); f != nil {
			return &s.Chapters[i], f
		}
	}
	return nil, nil
}
