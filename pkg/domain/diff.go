package domain

import (
	"reflect"
)

// StateDiff represents the changes between two states.
// Save inspection uses it to summarize drift between checkpoints, and hosts
// can serialize it for partial updates on a client.
type StateDiff struct {
	CurrentNodeID *string `json:"currentNodeId,omitempty"`

	// Flags contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Flags map[string]any `json:"flags,omitempty"`

	// HistoryDelta describes how the history changed.
	HistoryDelta *HistoryDelta `json:"history,omitempty"`
}

// HistoryDelta represents changes to the visited-node history.
type HistoryDelta struct {
	// Appended holds new items added to the tail (normal play).
	Appended []string `json:"appended,omitempty"`

	// Truncated counts items removed from the tail (undo).
	Truncated int `json:"truncated,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, the diff represents the entire newState (initial load).
// A nil return means nothing changed.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{}

	if oldState == nil || oldState.CurrentNodeID != newState.CurrentNodeID {
		diff.CurrentNodeID = &newState.CurrentNodeID
	}

	diff.Flags = diffFlags(oldState, newState)
	diff.HistoryDelta = diffHistory(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffFlags(old, new *State) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.Flags {
			delta[k] = v
		}
		if len(delta) == 0 {
			return nil
		}
		return delta
	}

	for k, newVal := range new.Flags {
		oldVal, exists := old.Flags[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	for k := range old.Flags {
		if _, exists := new.Flags[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffHistory(old, new *State) *HistoryDelta {
	if new == nil || len(new.History) == 0 {
		return nil
	}

	if old == nil {
		return &HistoryDelta{Appended: new.History}
	}

	oldLen := len(old.History)
	newLen := len(new.History)

	switch {
	case newLen > oldLen:
		return &HistoryDelta{Appended: new.History[oldLen:]}
	case newLen < oldLen:
		return &HistoryDelta{Truncated: oldLen - newLen}
	default:
		return nil
	}
}

// IsEmpty reports whether the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentNodeID == nil &&
		len(d.Flags) == 0 &&
		d.HistoryDelta == nil
}

// FlagsChanged reports whether any flag was added, changed or removed.
func (d *StateDiff) FlagsChanged() bool {
	return d != nil && len(d.Flags) > 0
}
