package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/tmarche/fabula/internal/logging"
	"github.com/tmarche/fabula/pkg/adapters/loamstory"
	"github.com/tmarche/fabula/pkg/adapters/storyfile"
	"github.com/tmarche/fabula/pkg/domain"
	"github.com/tmarche/fabula/pkg/ports"
)

var errInterrupted = errors.New("interrupted")

// SignalContext is a context cancelled by SIGINT or SIGTERM that remembers
// which signal fired, so completion messages can tell an interrupt from a
// termination.
type SignalContext struct {
	context.Context
	Cancel func()

	stop   sync.Once
	sigCh  chan os.Signal
	mu     sync.Mutex
	sigVal os.Signal
}

// NewSignalContext creates a context cancelled on SIGINT or SIGTERM. It is a
// drop-in for signal.NotifyContext that additionally exposes the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() { signal.Stop(sc.sigCh) })
	}()

	return sc
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// InterruptibleReader wraps a blocking reader (os.Stdin) and fails the read
// once the cancel channel closes. The underlying Read still blocks until the
// next line arrives; the check fires before and after it.
type InterruptibleReader struct {
	base   io.Reader
	cancel <-chan struct{}
}

func NewInterruptibleReader(base io.Reader, cancel <-chan struct{}) *InterruptibleReader {
	return &InterruptibleReader{base: base, cancel: cancel}
}

func (r *InterruptibleReader) Read(p []byte) (int, error) {
	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}

	n, err := r.base.Read(p)

	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}
	return n, err
}

// buildLogger configures the command logger. Quiet unless debugging; debug
// output goes to stderr so it never interleaves with the story on stdout.
func buildLogger(cfg Config) *slog.Logger {
	if !cfg.Debug {
		return logging.NewNop()
	}
	if cfg.LogFormat == "json" {
		return logging.NewJSON(slog.LevelDebug)
	}
	return logging.New(slog.LevelDebug)
}

// printSystemMessage prints a standardized system line to stdout.
func printSystemMessage(format string, args ...any) {
	fmt.Printf(">>> %s\n", fmt.Sprintf(format, args...))
}

// debugHooks traces every engine event to the logger.
func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			logger.Debug("node enter", "node", e.NodeID)
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			logger.Debug("node leave", "node", e.NodeID)
		},
		OnChoice: func(_ context.Context, e *domain.ChoiceEvent) {
			logger.Debug("choice", "text", e.Choice, "next", e.NextNodeID)
		},
		OnBranch: func(_ context.Context, e *domain.BranchEvent) {
			logger.Debug("branch", "option", e.OptionID, "to_flow", e.ToFlowID)
		},
		OnUndo: func(_ context.Context, e *domain.StackEvent) {
			logger.Debug("undo", "applied", e.Applied, "node", e.NodeID)
		},
		OnRedo: func(_ context.Context, e *domain.StackEvent) {
			logger.Debug("redo", "applied", e.Applied, "node", e.NodeID)
		},
		OnReset: func(_ context.Context, e *domain.NodeEvent) {
			logger.Debug("reset", "node", e.NodeID)
		},
		OnCheckpoint: func(_ context.Context, e *domain.CheckpointEvent) {
			logger.Debug("checkpoint", "id", e.CheckpointID, "trigger", e.Trigger)
		},
		OnConditionError: func(_ context.Context, e *domain.ConditionErrorEvent) {
			logger.Warn("condition failed closed", "predicate", e.Predicate, "reason", e.Reason)
		},
		OnSave: func(_ context.Context, e *domain.SaveEvent) {
			logger.Debug("saved", "key", e.Key, "bytes", e.Bytes)
		},
		OnLoad: func(_ context.Context, e *domain.SaveEvent) {
			logger.Debug("loaded", "key", e.Key)
		},
	}
}

// loadStory reads a story from a path: a directory is a loam repository, a
// file is parsed by extension.
func loadStory(ctx context.Context, path string) (*domain.Story, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open story path: %w", err)
	}

	var loader ports.StoryLoader
	if info.IsDir() {
		loader, err = loamstory.Open(path)
		if err != nil {
			return nil, err
		}
	} else {
		loader = storyfile.New(path)
	}
	return loader.LoadStory(ctx)
}

func isInterrupted(err error) bool {
	return errors.Is(err, errInterrupted) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, io.EOF)
}

// handleExecutionError maps interruptions to a clean exit.
func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}
