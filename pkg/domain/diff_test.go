package domain

import (
	"reflect"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old      *State
		new      *State
		wantDiff *StateDiff // nil means no effective change
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &State{
				CurrentNodeID: "start",
				Flags:         map[string]any{"a": 1},
				History:       []string{"start"},
			},
			wantDiff: &StateDiff{
				CurrentNodeID: &[]string{"start"}[0],
				Flags:         map[string]any{"a": 1},
				HistoryDelta:  &HistoryDelta{Appended: []string{"start"}},
			},
		},
		{
			name: "No Changes",
			old: &State{
				CurrentNodeID: "start",
				Flags:         map[string]any{"a": 1},
				History:       []string{"start"},
			},
			new: &State{
				CurrentNodeID: "start",
				Flags:         map[string]any{"a": 1},
				History:       []string{"start"},
			},
			wantDiff: nil,
		},
		{
			name: "Flags Added & Modified",
			old: &State{
				CurrentNodeID: "mid",
				Flags:         map[string]any{"courage": 1, "name": "Ada"},
				History:       []string{"start", "mid"},
			},
			new: &State{
				CurrentNodeID: "mid",
				Flags:         map[string]any{"courage": 2, "name": "Ada", "torch": true},
				History:       []string{"start", "mid"},
			},
			wantDiff: &StateDiff{
				Flags: map[string]any{"courage": 2, "torch": true},
			},
		},
		{
			name: "Flag Deleted",
			old: &State{
				CurrentNodeID: "mid",
				Flags:         map[string]any{"torch": true},
				History:       []string{"start", "mid"},
			},
			new: &State{
				CurrentNodeID: "mid",
				Flags:         map[string]any{},
				History:       []string{"start", "mid"},
			},
			wantDiff: &StateDiff{
				Flags: map[string]any{"torch": nil},
			},
		},
		{
			name: "History Appended",
			old: &State{
				CurrentNodeID: "start",
				History:       []string{"start"},
			},
			new: &State{
				CurrentNodeID: "mid",
				Flags:         map[string]any{},
				History:       []string{"start", "mid"},
			},
			wantDiff: &StateDiff{
				CurrentNodeID: &[]string{"mid"}[0],
				HistoryDelta:  &HistoryDelta{Appended: []string{"mid"}},
			},
		},
		{
			name: "History Truncated (Undo)",
			old: &State{
				CurrentNodeID: "mid",
				History:       []string{"start", "mid"},
			},
			new: &State{
				CurrentNodeID: "start",
				Flags:         map[string]any{},
				History:       []string{"start"},
			},
			wantDiff: &StateDiff{
				CurrentNodeID: &[]string{"start"}[0],
				HistoryDelta:  &HistoryDelta{Truncated: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)

			if tt.wantDiff == nil {
				if got != nil {
					t.Fatalf("expected nil diff, got %+v", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("expected diff %+v, got nil", tt.wantDiff)
			}

			if (got.CurrentNodeID == nil) != (tt.wantDiff.CurrentNodeID == nil) {
				t.Errorf("CurrentNodeID presence mismatch: got %v, want %v", got.CurrentNodeID, tt.wantDiff.CurrentNodeID)
			} else if got.CurrentNodeID != nil && *got.CurrentNodeID != *tt.wantDiff.CurrentNodeID {
				t.Errorf("CurrentNodeID = %q, want %q", *got.CurrentNodeID, *tt.wantDiff.CurrentNodeID)
			}

			if !reflect.DeepEqual(got.Flags, tt.wantDiff.Flags) {
				t.Errorf("Flags = %+v, want %+v", got.Flags, tt.wantDiff.Flags)
			}

			if !reflect.DeepEqual(got.HistoryDelta, tt.wantDiff.HistoryDelta) {
				t.Errorf("HistoryDelta = %+v, want %+v", got.HistoryDelta, tt.wantDiff.HistoryDelta)
			}
		})
	}
}

func TestDiffFlagsChanged(t *testing.T) {
	old := NewState("start")
	next := old.Clone()
	next.Flags["visited"] = true

	diff := Diff(old, next)
	if !diff.FlagsChanged() {
		t.Error("expected FlagsChanged to be true after adding a flag")
	}

	same := Diff(old, old.Clone())
	if same.FlagsChanged() {
		t.Error("expected FlagsChanged to be false for identical states")
	}
}
