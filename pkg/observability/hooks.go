package observability

import (
	"context"

	"github.com/tmarche/fabula/pkg/domain"
)

// MergeHooks fans every event out to all given hook sets, in order. Nil
// callbacks are skipped, so sparse hook sets merge cleanly.
func MergeHooks(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			for _, h := range hooks {
				if h.OnNodeEnter != nil {
					h.OnNodeEnter(ctx, e)
				}
			}
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			for _, h := range hooks {
				if h.OnNodeLeave != nil {
					h.OnNodeLeave(ctx, e)
				}
			}
		},
		OnChoice: func(ctx context.Context, e *domain.ChoiceEvent) {
			for _, h := range hooks {
				if h.OnChoice != nil {
					h.OnChoice(ctx, e)
				}
			}
		},
		OnBranch: func(ctx context.Context, e *domain.BranchEvent) {
			for _, h := range hooks {
				if h.OnBranch != nil {
					h.OnBranch(ctx, e)
				}
			}
		},
		OnUndo: func(ctx context.Context, e *domain.StackEvent) {
			for _, h := range hooks {
				if h.OnUndo != nil {
					h.OnUndo(ctx, e)
				}
			}
		},
		OnRedo: func(ctx context.Context, e *domain.StackEvent) {
			for _, h := range hooks {
				if h.OnRedo != nil {
					h.OnRedo(ctx, e)
				}
			}
		},
		OnReset: func(ctx context.Context, e *domain.NodeEvent) {
			for _, h := range hooks {
				if h.OnReset != nil {
					h.OnReset(ctx, e)
				}
			}
		},
		OnCheckpoint: func(ctx context.Context, e *domain.CheckpointEvent) {
			for _, h := range hooks {
				if h.OnCheckpoint != nil {
					h.OnCheckpoint(ctx, e)
				}
			}
		},
		OnConditionError: func(ctx context.Context, e *domain.ConditionErrorEvent) {
			for _, h := range hooks {
				if h.OnConditionError != nil {
					h.OnConditionError(ctx, e)
				}
			}
		},
		OnSave: func(ctx context.Context, e *domain.SaveEvent) {
			for _, h := range hooks {
				if h.OnSave != nil {
					h.OnSave(ctx, e)
				}
			}
		},
		OnLoad: func(ctx context.Context, e *domain.SaveEvent) {
			for _, h := range hooks {
				if h.OnLoad != nil {
					h.OnLoad(ctx, e)
				}
			}
		},
	}
}
