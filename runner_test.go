package fabula_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tmarche/fabula"
	"github.com/tmarche/fabula/pkg/domain"
)

func newRunnerEngine(t *testing.T) *fabula.Engine {
	t.Helper()
	eng, err := fabula.New(lighthouseStory())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestRunner_PlaysToEnding(t *testing.T) {
	eng := newRunnerEngine(t)
	var out bytes.Buffer
	runner := &fabula.Runner{
		Input:  strings.NewReader("2\n1\n1\n"),
		Output: &out,
	}

	if err := runner.Run(eng); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"--- The Lighthouse ---",
		"Waves crash against the rocks.",
		"1. Climb the stairs",
		"2. Search the beach",
		"A brass lantern lies in the sand.",
		"The lamp room is dark.",
		"1. Light the lamp",
		"Light sweeps the sea.",
		"The End.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if got := eng.CurrentNodeID(); got != "lit" {
		t.Errorf("expected the engine parked at lit, got %q", got)
	}
}

func TestRunner_SelectsByText(t *testing.T) {
	eng := newRunnerEngine(t)
	var out bytes.Buffer
	runner := &fabula.Runner{
		// Case-insensitive text match, and the last line has no newline.
		Input:  strings.NewReader("search the beach"),
		Output: &out,
	}

	if err := runner.Run(eng); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := eng.CurrentNodeID(); got != "beach" {
		t.Errorf("expected beach, got %q", got)
	}
	if !strings.Contains(out.String(), "A brass lantern lies in the sand.") {
		t.Errorf("expected the beach text shown:\n%s", out.String())
	}
}

func TestRunner_QuitCommand(t *testing.T) {
	eng := newRunnerEngine(t)
	var out bytes.Buffer
	runner := &fabula.Runner{
		Input:  strings.NewReader("quit\n"),
		Output: &out,
	}

	if err := runner.Run(eng); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.String(), "Bye!") {
		t.Errorf("expected the farewell line:\n%s", out.String())
	}
	if got := eng.CurrentNodeID(); got != "shore" {
		t.Errorf("quit must not move the engine, got %q", got)
	}
}

func TestRunner_InvalidInputReprompts(t *testing.T) {
	eng := newRunnerEngine(t)
	var out bytes.Buffer
	runner := &fabula.Runner{
		Input:  strings.NewReader("9\nbogus\n2\n"),
		Output: &out,
	}

	if err := runner.Run(eng); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, `Unknown choice "9"`) || !strings.Contains(text, `Unknown choice "bogus"`) {
		t.Errorf("expected both rejections reported:\n%s", text)
	}
	// Bad input re-prompts without re-printing the node text.
	if got := strings.Count(text, "Waves crash against the rocks."); got != 1 {
		t.Errorf("expected the shore text printed once, got %d", got)
	}
	if got := eng.CurrentNodeID(); got != "beach" {
		t.Errorf("expected the valid retry to land on beach, got %q", got)
	}
}

func TestRunner_UndoRedoCommands(t *testing.T) {
	eng := newRunnerEngine(t)
	var out bytes.Buffer
	runner := &fabula.Runner{
		Input:  strings.NewReader("redo\n1\nundo\n2\n"),
		Output: &out,
	}

	if err := runner.Run(eng); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "(nothing to redo)") {
		t.Errorf("expected the empty-redo notice:\n%s", text)
	}
	// Undo returns to the shore, so its text shows a second time.
	if got := strings.Count(text, "Waves crash against the rocks."); got != 2 {
		t.Errorf("expected the shore text twice around the undo, got %d", got)
	}
	if got := eng.CurrentNodeID(); got != "beach" {
		t.Errorf("expected beach at EOF, got %q", got)
	}
}

func TestRunner_HeadlessIsQuiet(t *testing.T) {
	eng := newRunnerEngine(t)
	var out bytes.Buffer
	runner := &fabula.Runner{
		Input:    strings.NewReader("2\n1\n1\n"),
		Output:   &out,
		Headless: true,
	}

	if err := runner.Run(eng); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	text := out.String()
	for _, banned := range []string{"---", "> ", "The End."} {
		if strings.Contains(text, banned) {
			t.Errorf("headless output must not contain %q:\n%s", banned, text)
		}
	}
	if !strings.Contains(text, "Light sweeps the sea.") {
		t.Errorf("headless mode still prints story text:\n%s", text)
	}
}

func TestRunner_RendererTransformsText(t *testing.T) {
	eng := newRunnerEngine(t)
	var out bytes.Buffer
	runner := &fabula.Runner{
		Input:  strings.NewReader("quit\n"),
		Output: &out,
		Renderer: func(s string) (string, error) {
			return strings.ToUpper(s), nil
		},
	}

	if err := runner.Run(eng); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.String(), "WAVES CRASH AGAINST THE ROCKS.") {
		t.Errorf("expected rendered text:\n%s", out.String())
	}
	// Choice labels are UI chrome, not story text; they stay untouched.
	if !strings.Contains(out.String(), "1. Climb the stairs") {
		t.Errorf("expected choice labels unrendered:\n%s", out.String())
	}
}

func TestRunner_RequiresIO(t *testing.T) {
	eng := newRunnerEngine(t)

	runner := fabula.NewRunner()
	if err := runner.Run(eng); err == nil {
		t.Fatal("expected an error with no input bound")
	}

	runner.Input = strings.NewReader("")
	if err := runner.Run(eng); err == nil {
		t.Fatal("expected an error with no output bound")
	}
}

func TestRunner_SaveLoadCommands(t *testing.T) {
	eng := newRunnerEngine(t)
	var out bytes.Buffer
	runner := &fabula.Runner{
		// Save on the beach, walk up to the tower, load back down.
		Input:  strings.NewReader("2\nsave\n1\nload\nquit\n"),
		Output: &out,
	}

	if err := runner.Run(eng); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, `Saved "quicksave".`) {
		t.Errorf("expected the save confirmation:\n%s", text)
	}
	if !strings.Contains(text, `Loaded "quicksave".`) {
		t.Errorf("expected the load confirmation:\n%s", text)
	}
	// Loading re-shows the restored node.
	if got := strings.Count(text, "A brass lantern lies in the sand."); got != 2 {
		t.Errorf("expected the beach text around the load, got %d", got)
	}
	if got := eng.CurrentNodeID(); got != "beach" {
		t.Errorf("expected the load to land on beach, got %q", got)
	}
}

func TestRunner_LoadMissingSave(t *testing.T) {
	eng := newRunnerEngine(t)
	var out bytes.Buffer
	runner := &fabula.Runner{
		Input:  strings.NewReader("load attic\nquit\n"),
		Output: &out,
	}

	if err := runner.Run(eng); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.String(), `No save named "attic".`) {
		t.Errorf("expected the missing-save notice:\n%s", out.String())
	}
	if got := eng.CurrentNodeID(); got != "shore" {
		t.Errorf("a failed load must not move the engine, got %q", got)
	}
}

func TestRunner_ChoiceTextShadowsCommands(t *testing.T) {
	story := &domain.Story{
		Title:         "The Cliff",
		InitialNodeID: "cliff",
		Nodes: []domain.Node{
			{
				ID:   "cliff",
				Text: "A rope dangles over the edge.",
				Choices: []domain.Choice{
					{Text: "Save the climber", NextNodeID: "ledge"},
				},
			},
			{ID: "ledge", Text: "You haul them up."},
		},
	}
	eng, err := fabula.New(story)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer eng.Close()

	var out bytes.Buffer
	runner := &fabula.Runner{
		Input:  strings.NewReader("save the climber\n"),
		Output: &out,
	}
	if err := runner.Run(eng); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Choice text wins over the command word of the same name.
	if got := eng.CurrentNodeID(); got != "ledge" {
		t.Errorf("expected the choice selected, got %q", got)
	}
	if strings.Contains(out.String(), "Saved") {
		t.Errorf("input matching a choice must not trigger the save command:\n%s", out.String())
	}
}
