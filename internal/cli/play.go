package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/tmarche/fabula"
	"github.com/tmarche/fabula/internal/presentation/tui"
	"github.com/tmarche/fabula/pkg/domain"
)

// PlayOptions carries the per-invocation settings of the play command.
type PlayOptions struct {
	StoryPath string
	Headless  bool

	// Resume names a save to load before play starts. A missing save is not
	// an error; the playthrough starts fresh.
	Resume string

	// NoAutosave disables the choice-triggered checkpoint ring.
	NoAutosave bool

	Config Config
}

// RunPlay opens the story, wires storage from the environment and drives the
// interactive loop until an ending, quit or interrupt.
func RunPlay(opts PlayOptions) error {
	logger := buildLogger(opts.Config)

	backend, err := BuildBackend(opts.Config)
	if err != nil {
		return err
	}
	defer backend.Close()

	engineOpts := []fabula.Option{
		fabula.WithLogger(logger),
		fabula.WithStore(backend.Store),
	}
	if backend.Locker != nil {
		engineOpts = append(engineOpts,
			fabula.WithLocker(backend.Locker),
			fabula.WithLockTTL(opts.Config.LockTTL))
	}
	if !opts.NoAutosave {
		engineOpts = append(engineOpts, fabula.WithAutosave(fabula.AutosaveConfig{
			Enabled:  true,
			Triggers: []domain.AutosaveTrigger{domain.TriggerChoice},
		}))
	}
	if opts.Config.Debug {
		engineOpts = append(engineOpts, fabula.WithLifecycleHooks(debugHooks(logger)))
	}

	engine, err := fabula.Open(opts.StoryPath, engineOpts...)
	if err != nil {
		return fmt.Errorf("failed to open story: %w", err)
	}
	defer engine.Close()

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	if opts.Resume != "" {
		switch err := engine.Load(sigCtx, opts.Resume); {
		case errors.Is(err, domain.ErrSaveNotFound):
			if !opts.Headless {
				printSystemMessage("No save %q yet, starting fresh.", opts.Resume)
			}
		case err != nil:
			return err
		default:
			if !opts.Headless {
				printSystemMessage("Resumed %q at '%s'.", opts.Resume, engine.CurrentNodeID())
			}
		}
	}

	if !opts.Headless {
		tui.PrintBanner(os.Stdout)
	}

	runner := fabula.NewRunner()
	runner.Input = NewInterruptibleReader(os.Stdin, sigCtx.Done())
	runner.Output = os.Stdout
	runner.Headless = opts.Headless
	// Markdown rendering only when a human is watching.
	if !opts.Headless && term.IsTerminal(int(os.Stdout.Fd())) {
		runner.Renderer = tui.NewRenderer()
	}

	runErr := runner.Run(engine)
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}

	if !opts.Headless && runErr != nil && isInterrupted(runErr) {
		if sigCtx.Signal() == os.Interrupt {
			fmt.Println("[CTRL+C]")
		} else {
			fmt.Println()
		}
		printSystemMessage("Interrupted at '%s'.", engine.CurrentNodeID())
	}

	return handleExecutionError(runErr)
}
