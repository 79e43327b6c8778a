package cli

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/term"

	"github.com/tmarche/fabula"
	"github.com/tmarche/fabula/internal/presentation/tui"
	"github.com/tmarche/fabula/pkg/domain"
)

// RunWatch plays the story and reloads it whenever the source changes. The
// playthrough survives reloads through the rolling autosave slot.
func RunWatch(opts PlayOptions) error {
	logger := buildLogger(opts.Config)

	backend, err := BuildBackend(opts.Config)
	if err != nil {
		return err
	}
	defer backend.Close()

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	tui.PrintBanner(os.Stdout)
	printSystemMessage("Watching '%s' for changes.", opts.StoryPath)

	for {
		again, err := watchIteration(sigCtx, opts, backend, logger)
		if err != nil {
			return err
		}
		if !again || sigCtx.Err() != nil {
			return nil
		}
	}
}

// watchIteration runs one engine lifetime: load, resume, play until a
// change, a signal or a quit. It reports whether to go again.
func watchIteration(parent *SignalContext, opts PlayOptions, backend *Backend, logger *slog.Logger) (bool, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	engine, err := fabula.Open(opts.StoryPath,
		fabula.WithLogger(logger),
		fabula.WithStore(backend.Store),
		fabula.WithAutosave(fabula.AutosaveConfig{
			Enabled:  true,
			Triggers: []domain.AutosaveTrigger{domain.TriggerChoice},
		}),
	)
	if err != nil {
		// Mid-edit stories break; wait for the next change instead of dying.
		printSystemMessage("Story failed to load: %v", err)
		select {
		case <-parent.Done():
			return false, nil
		case _, ok := <-pollChanges(ctx, opts.StoryPath):
			if !ok {
				return false, nil
			}
			printSystemMessage("Change detected, retrying.")
			return true, nil
		}
	}
	defer engine.Close()

	// Resume from the rolling autosave. A save pointing at a node the edit
	// removed restarts the story instead of wedging the loop.
	if err := engine.Load(ctx, fabula.AutosaveSlot); err == nil {
		if engine.CurrentNode() == nil {
			printSystemMessage("Node '%s' no longer exists, restarting.", engine.CurrentNodeID())
			engine.Reset()
		} else {
			printSystemMessage("Resuming at '%s'.", engine.CurrentNodeID())
		}
	}

	changes, err := engine.Watch(ctx)
	if err != nil {
		// Single-file stories have no repository watcher; poll instead.
		changes = pollChanges(ctx, opts.StoryPath)
	}

	reloadCh := make(chan struct{}, 1)
	go func() {
		select {
		case <-ctx.Done():
		case id, ok := <-changes:
			if !ok {
				return
			}
			fmt.Println()
			printSystemMessage("Change detected in '%s', reloading.", id)
			// Editors write in several steps; let the dust settle.
			time.Sleep(100 * time.Millisecond)
			reloadCh <- struct{}{}
			cancel()
		}
	}()

	runner := fabula.NewRunner()
	runner.Input = NewInterruptibleReader(os.Stdin, ctx.Done())
	runner.Output = os.Stdout
	if term.IsTerminal(int(os.Stdout.Fd())) {
		runner.Renderer = tui.NewRenderer()
	}

	runErr := runner.Run(engine)

	select {
	case <-reloadCh:
		return true, nil
	default:
	}

	if parent.Err() != nil {
		if parent.Signal() == os.Interrupt {
			fmt.Println("[CTRL+C]")
		}
		printSystemMessage("Interrupted at '%s'.", engine.CurrentNodeID())
		return false, nil
	}
	if runErr != nil && !isInterrupted(runErr) {
		return false, runErr
	}

	// Quit leaves the loop; an ending (or a story with every choice gated
	// shut) keeps watching so the author can continue editing.
	ended := engine.IsEnding()
	stuck := !ended && len(engine.AvailableChoices()) == 0
	if !ended && !stuck {
		return false, nil
	}
	printSystemMessage("Waiting for changes (Ctrl+C to quit).")
	select {
	case <-parent.Done():
		fmt.Println()
		return false, nil
	case <-reloadCh:
		return true, nil
	}
}

// pollChanges watches a file or directory by fingerprinting it twice a
// second. It backs the sources that cannot report their own changes.
func pollChanges(ctx context.Context, path string) <-chan string {
	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		last, _ := fingerprint(path)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				next, err := fingerprint(path)
				if err != nil || next == last {
					continue
				}
				last = next
				select {
				case ch <- path:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch
}

// fingerprint summarizes a path's modification state: file count plus the
// newest mtime under it. Good enough to detect edits, adds and removes.
func fingerprint(path string) (string, error) {
	var count int
	var newest time.Time
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		count++
		if info, err := d.Info(); err == nil && info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d:%d", count, newest.UnixNano()), nil
}
