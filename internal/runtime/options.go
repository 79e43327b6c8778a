package runtime

import (
	"log/slog"

	"github.com/tmarche/fabula/pkg/domain"
)

// EngineOption configures the core engine at construction.
type EngineOption func(*Engine)

// WithLogger sets the structured logger used by the engine and its
// evaluator. A nil logger keeps the no-op default.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks. Hooks fire
// synchronously after each committed operation.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithPredicate registers a named custom predicate with the evaluator.
func WithPredicate(name string, p domain.Predicate) EngineOption {
	return func(e *Engine) {
		e.evaluator.Register(name, p)
	}
}

// WithInventoryKey overrides the flag key read by inventory requirements.
func WithInventoryKey(key string) EngineOption {
	return func(e *Engine) {
		if key != "" {
			e.evaluator.inventoryKey = key
		}
	}
}

// WithClockKey overrides the flag key read by time window requirements.
func WithClockKey(key string) EngineOption {
	return func(e *Engine) {
		if key != "" {
			e.evaluator.clockKey = key
		}
	}
}

// WithUndoRedo configures the undo and redo stacks. Zero or negative limits
// fall back to DefaultStackLimit.
func WithUndoRedo(cfg UndoRedoConfig) EngineOption {
	return func(e *Engine) {
		e.undoRedo = cfg
	}
}

// WithInitialFlags seeds the flag map used for fresh and reset states.
// The map is deep-copied so later mutation by the caller has no effect.
func WithInitialFlags(flags map[string]any) EngineOption {
	return func(e *Engine) {
		e.initialFlags = domain.CloneFlags(flags)
	}
}
