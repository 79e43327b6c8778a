package domain

import (
	"errors"
	"fmt"
)

// ErrSaveNotFound is returned when a save key cannot be found in the store.
var ErrSaveNotFound = errors.New("save not found")

// ErrBranchInFlight is returned when a branch execution starts while another
// one is still committing on the same engine.
var ErrBranchInFlight = errors.New("branch execution already in progress")

// ErrOptionNotAvailable is returned when a branch execution names an option
// that is not currently offered, either unknown or gated off.
var ErrOptionNotAvailable = errors.New("branch option not available")

// InvalidChoiceError is returned when a selected choice is not among the
// currently available choices of the active node. The state is left untouched.
type InvalidChoiceError struct {
	NodeID string
	Choice string
}

func (e *InvalidChoiceError) Error() string {
	return fmt.Sprintf("choice %q is not available on node %q", e.Choice, e.NodeID)
}

// BrokenReferenceError is returned when a committed choice targets a node
// that does not exist in the story. Load-time validation makes this
// unreachable for validated stories; it guards hand-built graphs.
type BrokenReferenceError struct {
	FromNodeID string
	TargetID   string
}

func (e *BrokenReferenceError) Error() string {
	return fmt.Sprintf("node %q references missing node %q", e.FromNodeID, e.TargetID)
}

// UnresolvedFlowError is returned when a branch option targets a flow that is
// not part of the active chapter. Nothing is committed.
type UnresolvedFlowError struct {
	OptionID string
	FlowID   string
}

func (e *UnresolvedFlowError) Error() string {
	return fmt.Sprintf("branch option %q targets unknown flow %q", e.OptionID, e.FlowID)
}

// UnresolvedNodeError is returned when a flow entry resolves to a node that
// is not part of the story. Nothing is committed.
type UnresolvedNodeError struct {
	FlowID string
	NodeID string
}

func (e *UnresolvedNodeError) Error() string {
	return fmt.Sprintf("flow %q entry node %q does not exist", e.FlowID, e.NodeID)
}

// IntegrityError is returned when an envelope checksum does not match a
// recomputed hash of its payload.
type IntegrityError struct {
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("checksum mismatch: envelope declares %s, payload hashes to %s", e.Expected, e.Actual)
}

// AdapterError wraps a storage adapter failure with its operation and key.
// Use errors.Unwrap (or errors.Is/As) to reach the underlying cause.
type AdapterError struct {
	Op  string
	Key string
	Err error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }
