package runtime

import (
	"time"

	"github.com/tmarche/fabula/pkg/domain"
)

// DefaultStackLimit is the per-stack bound when none is configured.
const DefaultStackLimit = 100

// UndoRedoConfig bounds the undo and redo stacks.
type UndoRedoConfig struct {
	Enabled        bool `json:"enabled" yaml:"enabled"`
	MaxUndoEntries int  `json:"maxUndoEntries" yaml:"maxUndoEntries"`
	MaxRedoEntries int  `json:"maxRedoEntries" yaml:"maxRedoEntries"`
}

// StackResult reports the outcome of an undo or redo request. An empty
// stack yields Applied false; it is never an error.
type StackResult struct {
	Applied   bool
	NodeID    string
	UndoDepth int
	RedoDepth int
}

type entryKind string

const (
	entryChoice entryKind = "choice"
	entryBranch entryKind = "branch"
)

// snapshot freezes the undoable position: node, flags, visited path and the
// active flow. Branch analytics are deliberately excluded, they count what
// happened and undo does not unhappen it.
type snapshot struct {
	NodeID    string
	Flags     map[string]any
	History   []string
	ChapterID string
	FlowID    string
}

type entry struct {
	Kind   entryKind
	Before snapshot
	After  snapshot
	At     time.Time
}

// History holds the bounded undo and redo stacks. Recording a new committed
// transition clears redo, and overflow evicts the oldest entry of a stack.
type History struct {
	cfg  UndoRedoConfig
	undo []entry
	redo []entry
}

func newHistory(cfg UndoRedoConfig) *History {
	if cfg.MaxUndoEntries <= 0 {
		cfg.MaxUndoEntries = DefaultStackLimit
	}
	if cfg.MaxRedoEntries <= 0 {
		cfg.MaxRedoEntries = DefaultStackLimit
	}
	return &History{cfg: cfg}
}

// Record pushes a committed transition onto undo and invalidates redo.
func (h *History) Record(en entry) {
	if !h.cfg.Enabled {
		return
	}
	h.pushUndo(en)
	h.redo = h.redo[:0]
}

// pushUndo appends without touching redo; used by Record and by Redo when
// it moves an entry back.
func (h *History) pushUndo(en entry) {
	h.undo = append(h.undo, en)
	if len(h.undo) > h.cfg.MaxUndoEntries {
		h.undo = h.undo[1:]
	}
}

func (h *History) pushRedo(en entry) {
	h.redo = append(h.redo, en)
	if len(h.redo) > h.cfg.MaxRedoEntries {
		h.redo = h.redo[1:]
	}
}

func (h *History) popUndo() (entry, bool) {
	if len(h.undo) == 0 {
		return entry{}, false
	}
	en := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	return en, true
}

func (h *History) popRedo() (entry, bool) {
	if len(h.redo) == 0 {
		return entry{}, false
	}
	en := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	return en, true
}

// Clear drops both stacks.
func (h *History) Clear() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}

func (h *History) UndoDepth() int { return len(h.undo) }
func (h *History) RedoDepth() int { return len(h.redo) }
func (h *History) Enabled() bool  { return h.cfg.Enabled }

// Undo reverts the most recent committed transition and stages it for redo.
// An empty stack is reported through the result, never as an error.
func (e *Engine) Undo() StackResult {
	en, ok := e.history.popUndo()
	if !ok {
		res := e.stackResult(false)
		e.emitStack(domain.EventUndo, res)
		return res
	}

	e.applySnapshot(en.Before)
	e.history.pushRedo(en)

	res := e.stackResult(true)
	e.logger.Debug("undo applied", "node", res.NodeID)
	e.emitStack(domain.EventUndo, res)
	return res
}

// Redo re-applies the most recently undone transition. Only reachable until
// the next committed transition clears the redo stack.
func (e *Engine) Redo() StackResult {
	en, ok := e.history.popRedo()
	if !ok {
		res := e.stackResult(false)
		e.emitStack(domain.EventRedo, res)
		return res
	}

	e.applySnapshot(en.After)
	e.history.pushUndo(en)

	res := e.stackResult(true)
	e.logger.Debug("redo applied", "node", res.NodeID)
	e.emitStack(domain.EventRedo, res)
	return res
}

// StackDepths reports the current undo and redo depths.
func (e *Engine) StackDepths() (undo, redo int) {
	return e.history.UndoDepth(), e.history.RedoDepth()
}

func (e *Engine) stackResult(applied bool) StackResult {
	return StackResult{
		Applied:   applied,
		NodeID:    e.state.CurrentNodeID,
		UndoDepth: e.history.UndoDepth(),
		RedoDepth: e.history.RedoDepth(),
	}
}
