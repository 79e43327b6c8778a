package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter      EventType = "node_enter"
	EventNodeLeave      EventType = "node_leave"
	EventChoice         EventType = "choice"
	EventBranch         EventType = "branch"
	EventUndo           EventType = "undo"
	EventRedo           EventType = "redo"
	EventReset          EventType = "reset"
	EventCheckpoint     EventType = "checkpoint"
	EventConditionError EventType = "condition_error"
	EventSave           EventType = "save"
	EventLoad           EventType = "load"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// NodeEvent represents entry to or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID string `json:"node_id"`
}

// ChoiceEvent represents a committed choice transition.
type ChoiceEvent struct {
	EventBase
	NodeID     string `json:"node_id"`
	Choice     string `json:"choice"`
	NextNodeID string `json:"next_node_id"`
}

// BranchEvent represents a committed branch execution.
type BranchEvent struct {
	EventBase
	OptionID   string `json:"option_id"`
	FromFlowID string `json:"from_flow_id,omitempty"`
	ToFlowID   string `json:"to_flow_id"`
}

// StackEvent represents an undo or redo application.
type StackEvent struct {
	EventBase
	Applied bool   `json:"applied"`
	NodeID  string `json:"node_id,omitempty"`
}

// CheckpointEvent represents a captured checkpoint.
type CheckpointEvent struct {
	EventBase
	CheckpointID string          `json:"checkpoint_id"`
	Trigger      AutosaveTrigger `json:"trigger"`
}

// ConditionErrorEvent represents a custom predicate that panicked or errored.
// The evaluator treats the condition as failed and keeps going.
type ConditionErrorEvent struct {
	EventBase
	Predicate string `json:"predicate"`
	Reason    string `json:"reason"`
}

// SaveEvent represents a completed save or load through the persistence layer.
type SaveEvent struct {
	EventBase
	Key   string `json:"key"`
	Bytes int    `json:"bytes,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// All hooks are optional; nil hooks are skipped. Hooks run synchronously on
// the committing goroutine and must not call back into the engine.
type LifecycleHooks struct {
	OnNodeEnter      func(context.Context, *NodeEvent)
	OnNodeLeave      func(context.Context, *NodeEvent)
	OnChoice         func(context.Context, *ChoiceEvent)
	OnBranch         func(context.Context, *BranchEvent)
	OnUndo           func(context.Context, *StackEvent)
	OnRedo           func(context.Context, *StackEvent)
	OnReset          func(context.Context, *NodeEvent)
	OnCheckpoint     func(context.Context, *CheckpointEvent)
	OnConditionError func(context.Context, *ConditionErrorEvent)
	OnSave           func(context.Context, *SaveEvent)
	OnLoad           func(context.Context, *SaveEvent)
}
