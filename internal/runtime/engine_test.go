package runtime

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/tmarche/fabula/pkg/domain"
)

func testStory() *domain.Story {
	return &domain.Story{
		Title:         "The Fork",
		InitialNodeID: "start",
		Nodes: []domain.Node{
			{ID: "start", Text: "A fork in the road.", Choices: []domain.Choice{
				{Text: "Go left", NextNodeID: "left", FlagEffects: map[string]any{"went_left": true}},
				{Text: "Go right", NextNodeID: "right"},
				{
					Text:       "Secret path",
					NextNodeID: "secret",
					Requirements: []domain.Requirement{
						{Kind: domain.RequireFlagEquals, Flag: "has_map", Value: true},
					},
				},
			}},
			{ID: "left", Text: "A quiet grove.", Choices: []domain.Choice{{Text: "Back", NextNodeID: "start"}}},
			{ID: "right", Text: "A riverbank.", Choices: []domain.Choice{{Text: "Back", NextNodeID: "start"}}},
			{ID: "secret", Text: "A hidden shrine."},
		},
	}
}

func mustEngine(t *testing.T, story *domain.Story, opts ...EngineOption) *Engine {
	t.Helper()
	e, err := NewEngine(story, opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestNewEngineRejectsBrokenStory(t *testing.T) {
	story := testStory()
	story.Nodes[0].Choices[1].NextNodeID = "nowhere"

	if _, err := NewEngine(story); err == nil {
		t.Fatal("expected a validation error for a dangling choice target")
	}
}

func TestSelectChoiceAdvances(t *testing.T) {
	e := mustEngine(t, testStory())

	if err := e.SelectChoice(domain.Choice{Text: "Go left", NextNodeID: "left"}); err != nil {
		t.Fatalf("SelectChoice: %v", err)
	}

	state, _ := e.Snapshot()
	if state.CurrentNodeID != "left" {
		t.Errorf("current node = %q, want %q", state.CurrentNodeID, "left")
	}
	if v, ok := state.Flags["went_left"].(bool); !ok || !v {
		t.Errorf("went_left flag = %v, want true", state.Flags["went_left"])
	}
	if len(state.History) != 2 || state.History[1] != "left" {
		t.Errorf("history = %v, want [start left]", state.History)
	}
}

func TestSelectChoiceUnknownLeavesStateUntouched(t *testing.T) {
	e := mustEngine(t, testStory())
	before, _ := e.Snapshot()

	err := e.SelectChoice(domain.Choice{Text: "Fly away", NextNodeID: "left"})
	var invalid *domain.InvalidChoiceError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want InvalidChoiceError", err)
	}

	after, _ := e.Snapshot()
	if after.CurrentNodeID != before.CurrentNodeID || len(after.History) != len(before.History) {
		t.Errorf("state changed after a rejected choice: %+v", after)
	}
}

func TestGatedChoiceRequiresFlag(t *testing.T) {
	e := mustEngine(t, testStory())

	err := e.SelectChoice(domain.Choice{Text: "Secret path", NextNodeID: "secret"})
	var invalid *domain.InvalidChoiceError
	if !errors.As(err, &invalid) {
		t.Fatalf("gated choice without flag: error = %v, want InvalidChoiceError", err)
	}

	e = mustEngine(t, testStory(), WithInitialFlags(map[string]any{"has_map": true}))
	if err := e.SelectChoice(domain.Choice{Text: "Secret path", NextNodeID: "secret"}); err != nil {
		t.Fatalf("gated choice with flag: %v", err)
	}
	if node := e.CurrentNode(); node.ID != "secret" {
		t.Errorf("current node = %q, want %q", node.ID, "secret")
	}
}

func TestAvailableChoicesKeepAuthoredOrder(t *testing.T) {
	e := mustEngine(t, testStory())

	choices := e.AvailableChoices()
	if len(choices) != 2 {
		t.Fatalf("available = %d choices, want 2 (secret path gated off)", len(choices))
	}
	if choices[0].Text != "Go left" || choices[1].Text != "Go right" {
		t.Errorf("order = [%s, %s], want authored order", choices[0].Text, choices[1].Text)
	}
}

func TestResetRestoresInitialPosition(t *testing.T) {
	e := mustEngine(t, testStory(), WithInitialFlags(map[string]any{"gold": 5}))
	if err := e.SelectChoice(domain.Choice{Text: "Go left", NextNodeID: "left"}); err != nil {
		t.Fatalf("SelectChoice: %v", err)
	}

	e.Reset()

	state, _ := e.Snapshot()
	if state.CurrentNodeID != "start" {
		t.Errorf("current node = %q, want %q", state.CurrentNodeID, "start")
	}
	if len(state.History) != 1 || state.History[0] != "start" {
		t.Errorf("history = %v, want [start]", state.History)
	}
	if _, ok := state.Flags["went_left"]; ok {
		t.Error("choice effect survived reset")
	}
	if g, _ := state.Flags["gold"].(int); g != 5 {
		t.Errorf("initial flag gold = %v, want 5", state.Flags["gold"])
	}
	if res := e.Undo(); res.Applied {
		t.Error("undo applied after reset, stacks should be empty")
	}

	// Resetting twice lands in the same place.
	e.Reset()
	again, _ := e.Snapshot()
	if again.CurrentNodeID != state.CurrentNodeID || len(again.History) != len(state.History) {
		t.Errorf("second reset diverged: %+v", again)
	}
}

func TestRestoreRejectsUnknownNode(t *testing.T) {
	e := mustEngine(t, testStory())

	err := e.Restore(&domain.State{CurrentNodeID: "vanished"}, nil)
	var broken *domain.BrokenReferenceError
	if !errors.As(err, &broken) {
		t.Fatalf("error = %v, want BrokenReferenceError", err)
	}
	if e.CurrentNode().ID != "start" {
		t.Errorf("failed restore moved the engine to %q", e.CurrentNode().ID)
	}
}

func TestRestoreClearsUndoRedo(t *testing.T) {
	e := mustEngine(t, testStory())
	if err := e.SelectChoice(domain.Choice{Text: "Go left", NextNodeID: "left"}); err != nil {
		t.Fatalf("SelectChoice: %v", err)
	}
	target, _ := e.Snapshot()
	if res := e.Undo(); !res.Applied {
		t.Fatal("undo did not apply")
	}

	if err := e.Restore(target, nil); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if undo, redo := e.StackDepths(); undo != 0 || redo != 0 {
		t.Errorf("stacks after restore = (%d, %d), want empty", undo, redo)
	}
	if e.CurrentNode().ID != "left" {
		t.Errorf("current node = %q, want %q", e.CurrentNode().ID, "left")
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	e := mustEngine(t, testStory(), WithInitialFlags(map[string]any{"bag": []any{"rope"}}))

	state, _ := e.Snapshot()
	state.Flags["bag"].([]any)[0] = "knife"
	state.CurrentNodeID = "right"

	live, _ := e.Snapshot()
	if live.CurrentNodeID != "start" {
		t.Errorf("current node = %q, want %q", live.CurrentNodeID, "start")
	}
	if item := live.Flags["bag"].([]any)[0]; item != "rope" {
		t.Errorf("snapshot mutation leaked into the engine: bag[0] = %v", item)
	}
}

func TestLifecycleHooksFireInOrder(t *testing.T) {
	var events []string
	hooks := domain.LifecycleHooks{
		OnNodeLeave: func(_ context.Context, ev *domain.NodeEvent) {
			events = append(events, "leave:"+ev.NodeID)
		},
		OnChoice: func(_ context.Context, ev *domain.ChoiceEvent) {
			events = append(events, "choice:"+ev.NextNodeID)
		},
		OnNodeEnter: func(_ context.Context, ev *domain.NodeEvent) {
			events = append(events, "enter:"+ev.NodeID)
		},
	}
	e := mustEngine(t, testStory(), WithLifecycleHooks(hooks))

	if err := e.SelectChoice(domain.Choice{Text: "Go right", NextNodeID: "right"}); err != nil {
		t.Fatalf("SelectChoice: %v", err)
	}

	want := []string{"leave:start", "choice:right", "enter:right"}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}
