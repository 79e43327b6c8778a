package domain

import (
	"reflect"
	"testing"
)

func TestNewState(t *testing.T) {
	s := NewState("start")

	if s.CurrentNodeID != "start" {
		t.Errorf("CurrentNodeID = %q, want %q", s.CurrentNodeID, "start")
	}
	if len(s.Flags) != 0 {
		t.Errorf("expected empty flags, got %v", s.Flags)
	}
	if !reflect.DeepEqual(s.History, []string{"start"}) {
		t.Errorf("History = %v, want [start]", s.History)
	}
}

func TestStateCloneIsolation(t *testing.T) {
	s := NewState("start")
	s.Flags["gold"] = 10
	s.Flags["inventory"] = []any{"sword", "torch"}
	s.Flags["stats"] = map[string]any{"hp": 20}

	clone := s.Clone()

	// Mutating the clone must not leak into the source, including nested
	// containers.
	clone.CurrentNodeID = "elsewhere"
	clone.Flags["gold"] = 0
	clone.Flags["inventory"].([]any)[0] = "rope"
	clone.Flags["stats"].(map[string]any)["hp"] = 1
	clone.History = append(clone.History, "elsewhere")

	if s.CurrentNodeID != "start" {
		t.Errorf("source CurrentNodeID mutated: %q", s.CurrentNodeID)
	}
	if s.Flags["gold"] != 10 {
		t.Errorf("source flag mutated: %v", s.Flags["gold"])
	}
	if got := s.Flags["inventory"].([]any)[0]; got != "sword" {
		t.Errorf("source nested slice mutated: %v", got)
	}
	if got := s.Flags["stats"].(map[string]any)["hp"]; got != 20 {
		t.Errorf("source nested map mutated: %v", got)
	}
	if len(s.History) != 1 {
		t.Errorf("source history mutated: %v", s.History)
	}
}

func TestCloneNilState(t *testing.T) {
	var s *State
	if s.Clone() != nil {
		t.Error("cloning a nil state should return nil")
	}
}
