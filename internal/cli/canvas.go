package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/etulastrada/ideconfy/pkg/canvas"
	"github.com/etulastrada/ideconfy/pkg/errors"
	"github.com/etulastrada/ideconfy/pkg/placement"
	"github.com/etulastrada/ideconfy/pkg/render"
)

// =============================================================================
// Scenario Format
// =============================================================================

// Scenario is a scripted canvas session:
//
//	[canvas]
//	max_items = 4
//
//	[[steps]]
//	action = "craft"
//	name = "a"
//	content = "hello"
//
//	[[steps]]
//	action = "commit"
//	item = "a"
//	drop = [0, 0]
//	dy = -150
//
// Canvas overrides the config file's canvas section field by field.
// Items are referred to by the name given when they were crafted.
type Scenario struct {
	Canvas *canvas.Config `toml:"canvas" yaml:"canvas"`
	Seed   uint64         `toml:"seed" yaml:"seed"` // fallback placement randomness
	Steps  []Step         `toml:"steps" yaml:"steps"`
}

// Step is one scripted action.
type Step struct {
	Action  string    `toml:"action" yaml:"action"` // craft, commit, relocate, remove
	Name    string    `toml:"name" yaml:"name"`
	Item    string    `toml:"item" yaml:"item"`
	Content string    `toml:"content" yaml:"content"`
	Drop    []float64 `toml:"drop" yaml:"drop"` // [x, y]
	DX      float64   `toml:"dx" yaml:"dx"`
	DY      float64   `toml:"dy" yaml:"dy"`
}

// loadScenario decodes a scenario by file extension.
func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read scenario")
	}
	var s Scenario
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		_, err = toml.Decode(string(data), &s)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &s)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported scenario format %q", ext)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", filepath.Base(path))
	}
	return &s, nil
}

func (s Step) drop() (*placement.Position, error) {
	switch len(s.Drop) {
	case 0:
		return nil, nil
	case 2:
		return &placement.Position{X: s.Drop[0], Y: s.Drop[1]}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "drop must be [x, y], got %d values", len(s.Drop))
	}
}

// =============================================================================
// Replay
// =============================================================================

// stepResult is one row of the replay report.
type stepResult struct {
	Step    int
	Action  string
	Name    string
	Outcome canvas.Outcome
	Err     error
}

// replay applies every step to c. Step errors are recorded, not fatal, so a
// scenario can demonstrate illegal transitions.
func replay(ctx context.Context, c *canvas.Canvas, steps []Step) []stepResult {
	ids := make(map[string]string)
	results := make([]stepResult, 0, len(steps))

	for i, st := range steps {
		r := stepResult{Step: i + 1, Action: strings.ToLower(st.Action), Name: st.Name}
		if r.Name == "" {
			r.Name = st.Item
		}
		id := ids[st.Item]
		if id == "" {
			id = st.Item
		}

		switch r.Action {
		case "craft":
			it, err := c.Craft(st.Content)
			if err == nil {
				name := st.Name
				if name == "" {
					name = it.Content
					r.Name = name
				}
				ids[name] = it.ID
				r.Outcome = canvas.Outcome{Item: it, Event: "craft", Transitioned: true, Layer: placement.FallbackLayer}
			}
			r.Err = err
		case "commit":
			drop, err := st.drop()
			if err != nil {
				r.Err = err
				break
			}
			r.Outcome, r.Err = c.Commit(ctx, id, canvas.Gesture{Drop: drop, DX: st.DX, DY: st.DY})
		case "relocate":
			drop, err := st.drop()
			if err == nil && drop == nil {
				err = errors.New(errors.ErrCodeInvalidInput, "relocate needs drop = [x, y]")
			}
			if err != nil {
				r.Err = err
				break
			}
			r.Outcome, r.Err = c.Relocate(ctx, id, *drop)
		case "remove":
			r.Outcome, r.Err = c.Remove(ctx, id)
		default:
			r.Err = errors.New(errors.ErrCodeInvalidInput, "unknown action %q", st.Action)
		}
		results = append(results, r)
	}
	return results
}

// =============================================================================
// Command
// =============================================================================

// canvasCommand replays a scenario file against a fresh canvas.
func (c *CLI) canvasCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "canvas <scenario.toml|scenario.yaml>",
		Short: "Replay a scripted canvas session and report every placement",
		Long: `Replay craft, commit, relocate and remove steps against an empty canvas.

Commits only place an item when the drag moves more than the threshold
(100 by default) vertically and the canvas has room (12 items by default).
Use -o to write the final canvas as one SVG.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			sc, err := loadScenario(args[0])
			if err != nil {
				return err
			}

			ccfg := cfg.Canvas
			if sc.Canvas != nil {
				ccfg = mergeCanvasConfig(ccfg, *sc.Canvas)
			}
			opts := []canvas.Option{
				canvas.WithConfig(ccfg),
				canvas.WithLogger(loggerFromContext(cmd.Context())),
			}
			if sc.Seed != 0 {
				opts = append(opts, canvas.WithRand(rand.New(rand.NewPCG(sc.Seed, sc.Seed))))
			}
			cv, err := canvas.New(nil, opts...)
			if err != nil {
				return err
			}

			prog := newProgress(loggerFromContext(cmd.Context()))
			results := replay(cmd.Context(), cv, sc.Steps)
			report := cmd.OutOrStdout()
			if output == stdoutPath {
				report = cmd.ErrOrStderr()
			}
			fmt.Fprintln(report, resultsTable(results))
			prog.done("replayed scenario", "steps", len(results), "placed", cv.Len())

			for _, o := range cv.Overlaps() {
				printWarning("items %s and %s overlap (distance %.1f)", short(o.A), short(o.B), o.Distance)
			}

			if output != "" {
				if err := errors.ValidateOutputPath(output); err != nil {
					return err
				}
				svg := cv.Snapshot(render.WithTitle(filepath.Base(args[0])))
				if output == stdoutPath {
					return writeStdout(cmd.OutOrStdout(), svg, render.FormatSVG)
				}
				if err := writeFile(output, svg); err != nil {
					return err
				}
				printFile(output, false)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the final canvas as SVG")
	return cmd
}

// mergeCanvasConfig overlays the set fields of o on base. Threshold and Gap
// are set when non-nil, so an explicit zero overrides the base.
func mergeCanvasConfig(base, o canvas.Config) canvas.Config {
	if o.MaxItems != 0 {
		base.MaxItems = o.MaxItems
	}
	if o.Threshold != nil {
		base.Threshold = o.Threshold
	}
	if o.Footprint != 0 {
		base.Footprint = o.Footprint
	}
	if o.Gap != nil {
		base.Gap = o.Gap
	}
	if o.Layers != 0 {
		base.Layers = o.Layers
	}
	if o.GridSize != 0 {
		base.GridSize = o.GridSize
	}
	if !o.Fallback.Empty() {
		base.Fallback = o.Fallback
	}
	return base
}

// =============================================================================
// Report
// =============================================================================

var (
	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
)

func resultsTable(results []stepResult) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(StyleDim).
		Headers("#", "ACTION", "ITEM", "RESULT", "POSITION", "LAYER").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		})

	for _, r := range results {
		result, pos, layer := describe(r)
		t.Row(fmt.Sprint(r.Step), r.Action, r.Name, result, pos, layer)
	}
	return t.Render()
}

func describe(r stepResult) (result, pos, layer string) {
	if r.Err != nil {
		return styleIconError.Render(string(errors.GetCode(r.Err))) + " " + errors.UserMessage(r.Err), "", ""
	}
	o := r.Outcome
	switch {
	case !o.Transitioned:
		return StyleWarning.Render("kept in queue: " + string(o.Reason)), "", ""
	case o.Item.State == canvas.Placed:
		result = styleIconSuccess.Render("placed")
		if o.Degraded {
			result = StyleWarning.Render("placed at random")
		}
		return result, o.Item.Position.String(), layerLabel(o.Layer)
	default:
		return styleIconSuccess.Render(o.Item.State.String()), "", ""
	}
}

func layerLabel(layer int) string {
	if layer == placement.FallbackLayer {
		return "fallback"
	}
	return fmt.Sprint(layer)
}

// short abbreviates an item id for messages.
func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
