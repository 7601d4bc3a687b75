package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/etulastrada/ideconfy/pkg/canvas"
	"github.com/etulastrada/ideconfy/pkg/errors"
	"github.com/etulastrada/ideconfy/pkg/identicon"
	"github.com/etulastrada/ideconfy/pkg/placement"
)

const scenarioTOML = `
seed = 7

[canvas]
max_items = 2

[[steps]]
action = "craft"
name = "a"
content = "hello"

[[steps]]
action = "commit"
item = "a"
drop = [0, 0]
dy = -50

[[steps]]
action = "commit"
item = "a"
drop = [0, 0]
dy = -150

[[steps]]
action = "relocate"
item = "a"
drop = [300, 40]

[[steps]]
action = "craft"
name = "b"
content = "world"

[[steps]]
action = "commit"
item = "b"
drop = [300, 40]
dy = 200

[[steps]]
action = "teleport"
item = "b"
`

const scenarioYAML = `
steps:
  - action: craft
    name: a
    content: hello
  - action: commit
    item: a
    drop: [1, 2, 3]
    dy: -150
  - action: remove
    item: a
  - action: remove
    item: a
`

func writeScenario(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := loadScenario(writeScenario(t, "s.toml", scenarioTOML))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Seed != 7 || sc.Canvas == nil || sc.Canvas.MaxItems != 2 {
		t.Errorf("header = seed %d canvas %+v", sc.Seed, sc.Canvas)
	}
	if len(sc.Steps) != 7 {
		t.Fatalf("steps = %d, want 7", len(sc.Steps))
	}
	if got := sc.Steps[2]; got.DY != -150 || len(got.Drop) != 2 {
		t.Errorf("step 3 = %+v", got)
	}

	sc, err = loadScenario(writeScenario(t, "s.yml", scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.Steps) != 4 || sc.Steps[0].Content != "hello" {
		t.Errorf("yaml steps = %+v", sc.Steps)
	}

	if _, err := loadScenario(writeScenario(t, "s.json", "{}")); errors.GetCode(err) != errors.ErrCodeInvalidConfig {
		t.Errorf("json scenario error = %v, want INVALID_CONFIG", err)
	}
	if _, err := loadScenario(filepath.Join(t.TempDir(), "missing.toml")); errors.GetCode(err) != errors.ErrCodeInvalidPath {
		t.Errorf("missing scenario error = %v, want INVALID_PATH", err)
	}
}

func TestReplay(t *testing.T) {
	sc, err := loadScenario(writeScenario(t, "s.toml", scenarioTOML))
	if err != nil {
		t.Fatal(err)
	}
	cfg := canvas.DefaultConfig()
	cfg = mergeCanvasConfig(cfg, *sc.Canvas)
	cv, err := canvas.New(nil, canvas.WithConfig(cfg))
	if err != nil {
		t.Fatal(err)
	}

	results := replay(context.Background(), cv, sc.Steps)
	if len(results) != 7 {
		t.Fatalf("results = %d, want 7", len(results))
	}

	if r := results[1]; r.Err != nil || r.Outcome.Transitioned || r.Outcome.Reason != canvas.ReasonBelowThreshold {
		t.Errorf("short drag = %+v", r)
	}
	placed := results[2].Outcome
	if !placed.Transitioned || placed.Item.State != canvas.Placed {
		t.Fatalf("commit = %+v", placed)
	}
	if placed.Item.Position != (placement.Position{X: 0, Y: 0}) {
		t.Errorf("first item at %v, want (0,0)", placed.Item.Position)
	}
	if got := results[3].Outcome.Item.Position; got != (placement.Position{X: 300, Y: 40}) {
		t.Errorf("relocated to %v, want (300,40)", got)
	}
	if r := results[5]; r.Err != nil || !r.Outcome.Transitioned {
		t.Errorf("second commit = %+v", r)
	}
	if r := results[6]; errors.GetCode(r.Err) != errors.ErrCodeInvalidInput {
		t.Errorf("unknown action error = %v, want INVALID_INPUT", r.Err)
	}
	if cv.Len() != 2 {
		t.Errorf("placed = %d, want 2", cv.Len())
	}
}

func TestReplay_Errors(t *testing.T) {
	sc, err := loadScenario(writeScenario(t, "s.yaml", scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	cv, err := canvas.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	results := replay(context.Background(), cv, sc.Steps)
	if errors.GetCode(results[1].Err) != errors.ErrCodeInvalidInput {
		t.Errorf("three-value drop error = %v, want INVALID_INPUT", results[1].Err)
	}
	if results[2].Err != nil {
		t.Errorf("remove crafted item: %v", results[2].Err)
	}
	if errors.GetCode(results[3].Err) != errors.ErrCodeNotFound {
		t.Errorf("second remove error = %v, want NOT_FOUND", results[3].Err)
	}
}

func TestCanvasCommand(t *testing.T) {
	isolate(t)

	scenario := writeScenario(t, "s.toml", scenarioTOML)
	svgPath := filepath.Join(t.TempDir(), "canvas.svg")
	out, err := execute(t, "canvas", scenario, "-o", svgPath)
	if err != nil {
		t.Fatalf("canvas: %v", err)
	}
	for _, want := range []string{"craft", "kept in queue", "placed", "(0,0)", "(300,40)", "INVALID_INPUT"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	svg, err := os.ReadFile(svgPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(svg), "<svg") {
		t.Error("snapshot is not SVG")
	}
	if !strings.Contains(string(svg), "#2cf24d") {
		t.Error("snapshot should draw the hello identicon")
	}
}

func TestMergeCanvasConfig(t *testing.T) {
	base := canvas.DefaultConfig()
	got := mergeCanvasConfig(base, canvas.Config{MaxItems: 3, Threshold: canvas.Float(40)})
	if got.MaxItems != 3 || got.ThresholdValue() != 40 {
		t.Errorf("overrides not applied: %+v", got)
	}
	if got.Footprint != base.Footprint || got.Layers != base.Layers || got.GapValue() != base.GapValue() {
		t.Errorf("unset fields should keep base: %+v", got)
	}

	got = mergeCanvasConfig(base, canvas.Config{Threshold: canvas.Float(0), Gap: canvas.Float(0)})
	if got.ThresholdValue() != 0 || got.GapValue() != 0 {
		t.Errorf("explicit zeros not applied: threshold %g, gap %g", got.ThresholdValue(), got.GapValue())
	}
}

// =============================================================================
// Preview
// =============================================================================

func typeKeys(m PreviewModel, s string) PreviewModel {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(PreviewModel)
}

func TestPreviewModel(t *testing.T) {
	m := NewPreviewModel("seed", identicon.DefaultSize)
	if m.Current().Content != "seed" {
		t.Errorf("blank input should preview the seed, got %q", m.Current().Content)
	}

	m = typeKeys(m, "hellx")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = typeKeys(next.(PreviewModel), "o")
	if m.Input != "hello" {
		t.Fatalf("Input = %q, want hello", m.Input)
	}
	if got := m.Current().Color.Hex(); got != "#2cf24d" {
		t.Errorf("preview color = %s, want #2cf24d", got)
	}
	if view := m.View(); !strings.Contains(view, "hello") || !strings.Contains(view, "#2cf24d") {
		t.Errorf("view missing input or color:\n%s", view)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(PreviewModel)
	if len(m.Crafted) != 1 || m.Crafted[0].Content != "hello" || m.Input != "" {
		t.Fatalf("after enter: crafted %d, input %q", len(m.Crafted), m.Input)
	}

	// Enter on blank input crafts nothing.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if got := len(next.(PreviewModel).Crafted); got != 1 {
		t.Errorf("blank enter crafted %d, want 1", got)
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc}); cmd == nil {
		t.Error("esc should quit")
	}
}

func TestPreviewModel_HashesInputAsTyped(t *testing.T) {
	m := typeKeys(NewPreviewModel("seed", identicon.DefaultSize), " hello")
	want := identicon.MustGenerate(" hello", identicon.DefaultSize)
	if got := m.Current(); got.Digest != want.Digest {
		t.Errorf("Current() digest = %s, want digest of %q", got.Digest, " hello")
	}
	if got := m.Current().Color.Hex(); got == "#2cf24d" {
		t.Error("padded input previewed as its trimmed form")
	}
}

func TestPreviewModel_Shelf(t *testing.T) {
	m := NewPreviewModel("seed", identicon.DefaultSize)
	for i := range maxShelf + 2 {
		m = typeKeys(m, string(rune('a'+i)))
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = next.(PreviewModel)
	}
	if len(m.Crafted) != maxShelf+2 {
		t.Fatalf("crafted = %d", len(m.Crafted))
	}
	if m.View() == "" {
		t.Error("empty view")
	}
}

func TestPatternBlock(t *testing.T) {
	id := identicon.MustGenerate("hello", 5)
	block := patternBlock(id)
	rows := strings.Split(strings.TrimSuffix(block, "\n"), "\n")
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(rows))
	}
	// ##.## draws four filled cells.
	if got := strings.Count(rows[0], "██"); got != 4 {
		t.Errorf("row 0 filled = %d, want 4", got)
	}
	if got := strings.Count(block, "██"); got != 14 {
		t.Errorf("filled cells = %d, want 14", got)
	}
}
