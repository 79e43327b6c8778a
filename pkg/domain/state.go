package domain

// State represents the current snapshot of a playthrough.
// It is exclusively owned by the engine; external readers always receive
// deep copies so no caller can mutate engine state through an alias.
type State struct {
	// CurrentNodeID is the identifier of the active node.
	CurrentNodeID string `json:"currentNodeId"`

	// Flags holds the mutable player state for the session.
	// Values must stay JSON-representable: scalars, slices and maps only.
	// Flags never hold references to engine internals.
	Flags map[string]any `json:"flags"`

	// History tracks the visited node path, beginning at the initial node.
	// It is append-only during play and truncated only by undo.
	History []string `json:"history"`
}

// NewState creates a clean state starting at a specific node.
func NewState(startNodeID string) *State {
	return &State{
		CurrentNodeID: startNodeID,
		Flags:         make(map[string]any),
		History:       []string{startNodeID},
	}
}

// Clone returns a deep copy of the state. Flag values are copied recursively
// so the clone shares no mutable structure with the source.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	return &State{
		CurrentNodeID: s.CurrentNodeID,
		Flags:         CloneFlags(s.Flags),
		History:       append([]string(nil), s.History...),
	}
}

// CloneFlags deep-copies a flag map, descending into nested maps and slices.
func CloneFlags(flags map[string]any) map[string]any {
	out := make(map[string]any, len(flags))
	for k, v := range flags {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a single flag value. Scalars are returned as-is,
// which is safe for the JSON-representable value set flags are limited to.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = CloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return val
	}
}
