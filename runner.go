package fabula

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tmarche/fabula/pkg/domain"
)

// QuicksaveSlot is the save key the runner's bare "save" and "load"
// commands use.
const QuicksaveSlot = "quicksave"

// Runner drives an Engine through an interactive play loop over the given
// IO. It exists so frontends (plain CLI, TUI, tests) share one loop
// instead of each reimplementing prompt/parse/select.
type Runner struct {
	Input  io.Reader
	Output io.Writer

	// Headless suppresses the banner and prompts, for scripted
	// playthroughs piped from a file.
	Headless bool

	// Renderer transforms node text before display, e.g. Markdown to
	// ANSI. Nil prints the text as-is; a renderer error falls back to
	// the raw text.
	Renderer ContentRenderer
}

// ContentRenderer transforms story text before it is written out.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner with no IO bound. Callers set Input and
// Output explicitly; os.Stdin/os.Stdout for a CLI, buffers for tests.
func NewRunner() *Runner {
	return &Runner{}
}

// Run plays the engine until an ending node, an exit command, or EOF.
// Input resolves story-first: a number or exact choice text selects a
// choice, anything else is tried as a command (undo, redo, save [slot],
// load [slot], quit). Invalid input re-prompts instead of aborting.
func (r *Runner) Run(engine *Engine) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lines := bufio.NewReader(r.Input)
	out := r.Output

	if !r.Headless {
		title := engine.Story().Title
		if title == "" {
			title = "Fabula"
		}
		fmt.Fprintf(out, "--- %s ---\n", title)
	}

	lastShownID := ""
	for {
		node := engine.CurrentNode()
		if node == nil {
			return &domain.BrokenReferenceError{TargetID: engine.CurrentNodeID()}
		}

		// A node is shown once per visit; re-prompting after bad input
		// must not repeat the text.
		if node.ID != lastShownID {
			fmt.Fprintln(out, r.render(node.Text))
			lastShownID = node.ID
		}

		if node.IsEnding() {
			if !r.Headless {
				fmt.Fprintln(out, "The End.")
			}
			return nil
		}

		choices := engine.AvailableChoices()
		if len(choices) == 0 {
			// All choices gated shut: the playthrough is stuck, which is
			// an authoring problem, not a runner crash.
			fmt.Fprintln(out, "(no choices available)")
			return nil
		}
		for i, c := range choices {
			fmt.Fprintf(out, "%d. %s\n", i+1, c.Text)
		}

		input, err := r.prompt(out, lines)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		if input == "" {
			continue
		}

		// Story first: choice text shadows command words, so a choice
		// named "Save the map" is still selectable.
		err = r.selectFrom(engine, choices, input)
		if err == nil {
			// Forget the shown node so self-loops print again.
			lastShownID = ""
			continue
		}
		var invalid *domain.InvalidChoiceError
		if !errors.As(err, &invalid) {
			return err
		}

		quit, moved := r.command(engine, out, input)
		if quit {
			return nil
		}
		if moved {
			lastShownID = ""
		}
	}
}

// command interprets non-choice input. It reports whether the loop should
// stop and whether the playthrough position may have changed.
func (r *Runner) command(engine *Engine, out io.Writer, input string) (quit, moved bool) {
	parts := strings.Fields(input)
	slot := QuicksaveSlot
	if len(parts) > 1 {
		slot = strings.Join(parts[1:], " ")
	}

	switch strings.ToLower(parts[0]) {
	case "exit", "quit":
		if !r.Headless {
			fmt.Fprintln(out, "Bye!")
		}
		return true, false
	case "undo":
		if res := engine.Undo(); res.Applied {
			return false, true
		}
		fmt.Fprintln(out, "(nothing to undo)")
	case "redo":
		if res := engine.Redo(); res.Applied {
			return false, true
		}
		fmt.Fprintln(out, "(nothing to redo)")
	case "save":
		if err := engine.Save(context.Background(), slot); err != nil {
			fmt.Fprintf(out, "Save failed: %v\n", err)
		} else {
			fmt.Fprintf(out, "Saved %q.\n", slot)
		}
	case "load":
		err := engine.Load(context.Background(), slot)
		switch {
		case errors.Is(err, domain.ErrSaveNotFound):
			fmt.Fprintf(out, "No save named %q.\n", slot)
		case err != nil:
			fmt.Fprintf(out, "Load failed: %v\n", err)
		default:
			fmt.Fprintf(out, "Loaded %q.\n", slot)
			return false, true
		}
	default:
		fmt.Fprintf(out, "Unknown choice %q. Pick a number or type the choice text.\n", input)
	}
	return false, false
}

func (r *Runner) prompt(out io.Writer, lines *bufio.Reader) (string, error) {
	if !r.Headless {
		fmt.Fprint(out, "> ")
	}
	text, err := lines.ReadString('\n')
	if err != nil {
		// A last line without a trailing newline still counts.
		if errors.Is(err, io.EOF) && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), nil
		}
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// selectFrom resolves the input against the displayed choices, by number
// first, then by case-insensitive text.
func (r *Runner) selectFrom(engine *Engine, choices []domain.Choice, input string) error {
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(choices) {
			return &domain.InvalidChoiceError{NodeID: engine.CurrentNodeID(), Choice: input}
		}
		return engine.SelectChoice(choices[n-1])
	}

	for _, c := range choices {
		if strings.EqualFold(c.Text, input) {
			return engine.SelectChoice(c)
		}
	}
	return &domain.InvalidChoiceError{NodeID: engine.CurrentNodeID(), Choice: input}
}

func (r *Runner) render(text string) string {
	text = strings.TrimSpace(text)
	if r.Renderer == nil {
		return text
	}
	rendered, err := r.Renderer(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(rendered)
}
