// Package runtime hosts the narrative core: the transition engine, the
// condition evaluator, branch routing, undo/redo stacks and the autosaver.
// Everything here is single-playthrough and lock-free; the public facade
// owns synchronization.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmarche/fabula/internal/logging"
	"github.com/tmarche/fabula/internal/validator"
	"github.com/tmarche/fabula/pkg/domain"
)

// Engine is the deterministic transition core: one story, one playthrough.
// Every mutation path (choice, branch, undo, redo, reset, restore) funnels
// through it so the same invariants hold everywhere.
//
// The Engine is not safe for concurrent use; the public facade serializes
// access. All operations run synchronously to completion on the calling
// goroutine, there is no suspension mid-transition.
type Engine struct {
	story *domain.Story
	index map[string]*domain.Node

	state     *domain.State
	branching *domain.BranchingState

	evaluator *Evaluator
	history   *History
	hooks     domain.LifecycleHooks
	logger    *slog.Logger

	initialFlags   map[string]any
	undoRedo       UndoRedoConfig
	branchInFlight bool
}

// NewEngine validates the story and builds an engine positioned at its
// initial node. A structurally broken story is fatal: no engine is
// constructed.
func NewEngine(story *domain.Story, opts ...EngineOption) (*Engine, error) {
	if _, err := validator.ValidateStory(story); err != nil {
		return nil, err
	}

	e := &Engine{
		story:     story,
		logger:    logging.NewNop(),
		evaluator: NewEvaluator(),
		undoRedo: UndoRedoConfig{
			Enabled:        true,
			MaxUndoEntries: DefaultStackLimit,
			MaxRedoEntries: DefaultStackLimit,
		},
	}
	for _, opt := range opts {
		opt(e)
	}

	e.evaluator.logger = e.logger
	e.evaluator.onError = e.emitConditionError

	e.index = make(map[string]*domain.Node, len(story.Nodes))
	for i := range story.Nodes {
		e.index[story.Nodes[i].ID] = &story.Nodes[i]
	}

	e.history = newHistory(e.undoRedo)
	e.state = e.newInitialState()
	e.branching = e.newInitialBranching()

	return e, nil
}

// Story returns the loaded story. It is shared and must not be mutated.
func (e *Engine) Story() *domain.Story {
	return e.story
}

// CurrentNode returns the active node.
func (e *Engine) CurrentNode() *domain.Node {
	return e.index[e.state.CurrentNodeID]
}

// AvailableChoices returns the choices of the current node that pass their
// gates, in authored order.
func (e *Engine) AvailableChoices() []domain.Choice {
	node := e.CurrentNode()
	if node == nil {
		return nil
	}

	available := make([]domain.Choice, 0, len(node.Choices))
	for _, choice := range node.Choices {
		if e.evaluator.ChoiceAllowed(choice, e.state) {
			available = append(available, choice)
		}
	}
	return available
}

// SelectChoice commits the given choice. The choice must match one of the
// currently available choices (by text and target); anything else is an
// InvalidChoiceError and nothing changes. Effects merge shallowly into the
// flags, last write wins.
func (e *Engine) SelectChoice(choice domain.Choice) error {
	node := e.CurrentNode()
	if node == nil {
		return &domain.BrokenReferenceError{TargetID: e.state.CurrentNodeID}
	}

	var selected *domain.Choice
	for _, candidate := range e.AvailableChoices() {
		if candidate.Matches(choice) {
			c := candidate
			selected = &c
			break
		}
	}
	if selected == nil {
		return &domain.InvalidChoiceError{NodeID: node.ID, Choice: choice.Text}
	}

	// Load validation guarantees resolution for validated stories; this
	// re-check guards hand-built graphs.
	if _, ok := e.index[selected.NextNodeID]; !ok {
		return &domain.BrokenReferenceError{FromNodeID: node.ID, TargetID: selected.NextNodeID}
	}

	before := e.snapshotNow()

	for k, v := range selected.FlagEffects {
		e.state.Flags[k] = domain.CloneValue(v)
	}
	prevNodeID := e.state.CurrentNodeID
	e.state.History = append(e.state.History, selected.NextNodeID)
	e.state.CurrentNodeID = selected.NextNodeID

	e.history.Record(entry{Kind: entryChoice, Before: before, After: e.snapshotNow(), At: time.Now()})

	e.logger.Debug("choice committed",
		"from", prevNodeID,
		"to", selected.NextNodeID,
		"choice", selected.Text)

	e.emitNodeLeave(prevNodeID)
	e.emitChoice(prevNodeID, selected.Text, selected.NextNodeID)
	e.emitNodeEnter(selected.NextNodeID)
	return nil
}

// SetFlag writes one flag directly, outside any choice. The value is
// deep-copied. Host writes are not undoable: the stacks track narrative
// transitions, not bookkeeping.
func (e *Engine) SetFlag(key string, value any) {
	e.state.Flags[key] = domain.CloneValue(value)
	e.logger.Debug("flag set", "key", key)
}

// Reset returns the engine to a freshly-constructed position: initial node,
// initial flags, single-entry history, empty stacks, cleared branching
// state. Resetting twice is the same as resetting once.
func (e *Engine) Reset() {
	e.state = e.newInitialState()
	e.branching = e.newInitialBranching()
	e.history.Clear()
	e.branchInFlight = false

	e.logger.Debug("narrative reset", "node", e.state.CurrentNodeID)
	e.emitReset(e.state.CurrentNodeID)
}

// Snapshot returns deep copies of the play state and branching state.
func (e *Engine) Snapshot() (*domain.State, *domain.BranchingState) {
	return e.state.Clone(), e.branching.Clone()
}

// Restore replaces the engine position with a previously captured state.
// The target node must exist; on failure nothing changes. Undo and redo
// stacks are cleared: a restored save starts a fresh timeline.
func (e *Engine) Restore(state *domain.State, branching *domain.BranchingState) error {
	if state == nil {
		return fmt.Errorf("cannot restore nil state")
	}
	if _, ok := e.index[state.CurrentNodeID]; !ok {
		return &domain.BrokenReferenceError{TargetID: state.CurrentNodeID}
	}

	e.state = state.Clone()
	if e.state.Flags == nil {
		e.state.Flags = make(map[string]any)
	}
	if len(e.state.History) == 0 {
		e.state.History = []string{e.state.CurrentNodeID}
	}

	if branching != nil {
		e.branching = branching.Clone()
		if e.branching.Usage == nil {
			e.branching.Usage = make(map[string]int)
		}
	} else {
		e.branching = e.newInitialBranching()
	}

	e.history.Clear()
	e.branchInFlight = false
	return nil
}

func (e *Engine) newInitialState() *domain.State {
	st := domain.NewState(e.story.InitialNodeID)
	if len(e.initialFlags) > 0 {
		st.Flags = domain.CloneFlags(e.initialFlags)
	}
	return st
}

// newInitialBranching positions the playthrough in the first chapter,
// preferring the flow that contains the initial node.
func (e *Engine) newInitialBranching() *domain.BranchingState {
	b := domain.NewBranchingState()
	if len(e.story.Chapters) == 0 {
		return b
	}

	chapter := &e.story.Chapters[0]
	b.ChapterID = chapter.ID
	for fi := range chapter.Flows {
		for _, nodeID := range chapter.Flows[fi].NodeIDs {
			if nodeID == e.story.InitialNodeID {
				b.FlowID = chapter.Flows[fi].ID
				return b
			}
		}
	}
	if len(chapter.Flows) > 0 {
		b.FlowID = chapter.Flows[0].ID
	}
	return b
}

// snapshotNow freezes the undoable position.
func (e *Engine) snapshotNow() snapshot {
	return snapshot{
		NodeID:    e.state.CurrentNodeID,
		Flags:     domain.CloneFlags(e.state.Flags),
		History:   append([]string(nil), e.state.History...),
		ChapterID: e.branching.ChapterID,
		FlowID:    e.branching.FlowID,
	}
}

func (e *Engine) applySnapshot(s snapshot) {
	e.state.CurrentNodeID = s.NodeID
	e.state.Flags = domain.CloneFlags(s.Flags)
	e.state.History = append([]string(nil), s.History...)
	e.branching.ChapterID = s.ChapterID
	e.branching.FlowID = s.FlowID
}

// --- Hook emission ---

func eventBase(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t}
}

func (e *Engine) emitNodeEnter(nodeID string) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(context.Background(), &domain.NodeEvent{
		EventBase: eventBase(domain.EventNodeEnter),
		NodeID:    nodeID,
	})
}

func (e *Engine) emitNodeLeave(nodeID string) {
	if e.hooks.OnNodeLeave == nil {
		return
	}
	e.hooks.OnNodeLeave(context.Background(), &domain.NodeEvent{
		EventBase: eventBase(domain.EventNodeLeave),
		NodeID:    nodeID,
	})
}

func (e *Engine) emitChoice(nodeID, choice, nextNodeID string) {
	if e.hooks.OnChoice == nil {
		return
	}
	e.hooks.OnChoice(context.Background(), &domain.ChoiceEvent{
		EventBase:  eventBase(domain.EventChoice),
		NodeID:     nodeID,
		Choice:     choice,
		NextNodeID: nextNodeID,
	})
}

func (e *Engine) emitBranch(optionID, fromFlowID, toFlowID string) {
	if e.hooks.OnBranch == nil {
		return
	}
	e.hooks.OnBranch(context.Background(), &domain.BranchEvent{
		EventBase:  eventBase(domain.EventBranch),
		OptionID:   optionID,
		FromFlowID: fromFlowID,
		ToFlowID:   toFlowID,
	})
}

func (e *Engine) emitReset(nodeID string) {
	if e.hooks.OnReset == nil {
		return
	}
	e.hooks.OnReset(context.Background(), &domain.NodeEvent{
		EventBase: eventBase(domain.EventReset),
		NodeID:    nodeID,
	})
}

func (e *Engine) emitStack(t domain.EventType, res StackResult) {
	hook := e.hooks.OnUndo
	if t == domain.EventRedo {
		hook = e.hooks.OnRedo
	}
	if hook == nil {
		return
	}
	hook(context.Background(), &domain.StackEvent{
		EventBase: eventBase(t),
		Applied:   res.Applied,
		NodeID:    res.NodeID,
	})
}

func (e *Engine) emitConditionError(name string, err error) {
	e.logger.Warn("condition failed closed", "predicate", name, "err", err)
	if e.hooks.OnConditionError == nil {
		return
	}
	e.hooks.OnConditionError(context.Background(), &domain.ConditionErrorEvent{
		EventBase: eventBase(domain.EventConditionError),
		Predicate: name,
		Reason:    err.Error(),
	})
}
