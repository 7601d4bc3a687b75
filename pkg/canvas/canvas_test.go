package canvas

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/etulastrada/ideconfy/pkg/errors"
	"github.com/etulastrada/ideconfy/pkg/identicon"
	"github.com/etulastrada/ideconfy/pkg/placement"
	"github.com/etulastrada/ideconfy/pkg/render"
)

func newTestCanvas(t *testing.T, opts ...Option) *Canvas {
	t.Helper()
	base := []Option{
		WithLogger(log.New(io.Discard)),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	}
	c, err := New(nil, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func craft(t *testing.T, c *Canvas, content string) Item {
	t.Helper()
	it, err := c.Craft(content)
	if err != nil {
		t.Fatalf("Craft(%q) error: %v", content, err)
	}
	return it
}

func at(x, y float64) *placement.Position {
	return &placement.Position{X: x, Y: y}
}

func TestNext(t *testing.T) {
	tests := []struct {
		from State
		ev   Event
		to   State
		ok   bool
	}{
		{Uncommitted, Commit, Placed, true},
		{Uncommitted, Remove, Removed, true},
		{Uncommitted, Relocate, 0, false},
		{Placed, Relocate, Placed, true},
		{Placed, Remove, Removed, true},
		{Placed, Commit, 0, false},
		{Removed, Commit, 0, false},
		{Removed, Relocate, 0, false},
		{Removed, Remove, 0, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.from, tt.ev), func(t *testing.T) {
			got, ok := Next(tt.from, tt.ev)
			if ok != tt.ok || (ok && got != tt.to) {
				t.Errorf("Next(%s, %s) = %s, %v, want %s, %v", tt.from, tt.ev, got, ok, tt.to, tt.ok)
			}
		})
	}
}

func TestCraft(t *testing.T) {
	c := newTestCanvas(t)

	it := craft(t, c, "hello")
	if it.Content != "hello" {
		t.Errorf("Content = %q, want %q", it.Content, "hello")
	}
	if it.State != Uncommitted {
		t.Errorf("State = %s, want uncommitted", it.State)
	}
	if it.ID == "" {
		t.Error("ID is empty")
	}
	if got := it.Identicon.Color.Hex(); got != "#2cf24d" {
		t.Errorf("Color = %s, want #2cf24d", got)
	}
	if len(c.Queue()) != 1 || c.Len() != 0 {
		t.Errorf("Queue() = %d, Len() = %d, want 1, 0", len(c.Queue()), c.Len())
	}
}

func TestCraft_KeepsContentVerbatim(t *testing.T) {
	c := newTestCanvas(t)
	for _, content := range []string{"  hello  ", "hello\n", "a\x00b"} {
		it := craft(t, c, content)
		if it.Content != content {
			t.Errorf("Content = %q, want %q", it.Content, content)
		}
		want := identicon.MustGenerate(content, identicon.DefaultSize)
		if it.Identicon.Digest != want.Digest || !it.Identicon.Pattern.Equal(want.Pattern) {
			t.Errorf("Craft(%q) identicon differs from Generate(%q)", content, content)
		}
	}
	if got := craft(t, c, "  hello  ").Identicon.Color.Hex(); got == "#2cf24d" {
		t.Error("padded content hashed as its trimmed form")
	}
}

func TestCraft_Blank(t *testing.T) {
	c := newTestCanvas(t)
	for _, content := range []string{"", "   ", "\n\t"} {
		if _, err := c.Craft(content); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Craft(%q) error = %v, want INVALID_INPUT", content, err)
		}
	}
}

func TestCommit_Threshold(t *testing.T) {
	tests := []struct {
		name   string
		g      Gesture
		commit bool
	}{
		{"exactly threshold", Gesture{DY: 100}, false},
		{"exactly threshold upward", Gesture{DY: -100}, false},
		{"just beyond", Gesture{DY: 100.0001}, true},
		{"upward drag", Gesture{DY: -150}, true},
		{"horizontal only", Gesture{DX: 400, DY: 20}, false},
		{"no movement", Gesture{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCanvas(t)
			it := craft(t, c, "hello")

			out, err := c.Commit(context.Background(), it.ID, tt.g)
			if err != nil {
				t.Fatalf("Commit() error: %v", err)
			}
			if out.Transitioned != tt.commit {
				t.Errorf("Transitioned = %v, want %v", out.Transitioned, tt.commit)
			}
			if !tt.commit {
				if out.Reason != ReasonBelowThreshold {
					t.Errorf("Reason = %q, want %q", out.Reason, ReasonBelowThreshold)
				}
				if c.Len() != 0 {
					t.Errorf("Len() = %d after rejected commit, want 0", c.Len())
				}
				if got, _ := c.Get(it.ID); got.State != Uncommitted {
					t.Errorf("State = %s, want uncommitted", got.State)
				}
			}
		})
	}
}

func TestCommit_Positions(t *testing.T) {
	c := newTestCanvas(t)
	ctx := context.Background()

	a := craft(t, c, "a")
	out, err := c.Commit(ctx, a.ID, Gesture{DY: -200})
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if out.Item.Position != DefaultSeed {
		t.Errorf("first commit at %v, want %v", out.Item.Position, DefaultSeed)
	}
	if out.Layer != 0 {
		t.Errorf("Layer = %d, want 0", out.Layer)
	}

	b := craft(t, c, "b")
	out, _ = c.Commit(ctx, b.ID, Gesture{DY: -200})
	if want := (placement.Position{X: -20, Y: -20}); out.Item.Position != want {
		t.Errorf("second commit at %v, want %v", out.Item.Position, want)
	}

	d := craft(t, c, "d")
	out, _ = c.Commit(ctx, d.ID, Gesture{Drop: at(1000, 1000), DY: 150})
	if want := (placement.Position{X: 1000, Y: 1000}); out.Item.Position != want {
		t.Errorf("drop commit at %v, want %v", out.Item.Position, want)
	}

	if got := c.Placed(); len(got) != 3 || got[0].ID != a.ID || got[2].ID != d.ID {
		t.Errorf("Placed() = %v", got)
	}
}

func TestCommit_Capacity(t *testing.T) {
	c := newTestCanvas(t)
	ctx := context.Background()

	for i := range DefaultMaxItems {
		it := craft(t, c, fmt.Sprintf("item-%d", i))
		out, err := c.Commit(ctx, it.ID, Gesture{DY: -500})
		if err != nil || !out.Transitioned {
			t.Fatalf("commit %d: %+v, %v", i, out, err)
		}
	}

	extra := craft(t, c, "one too many")
	out, err := c.Commit(ctx, extra.ID, Gesture{DY: -500})
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if out.Transitioned || out.Reason != ReasonCapacity {
		t.Errorf("Commit() at capacity = %+v, want capacity rejection", out)
	}
	if c.Len() != DefaultMaxItems {
		t.Errorf("Len() = %d, want %d", c.Len(), DefaultMaxItems)
	}
	if q := c.Queue(); len(q) != 1 || q[0].ID != extra.ID {
		t.Errorf("Queue() = %v, want only %s", q, extra.ID)
	}

	// Freeing a slot lets the queued item through.
	if _, err := c.Remove(ctx, c.Placed()[0].ID); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	out, _ = c.Commit(ctx, extra.ID, Gesture{DY: -500})
	if !out.Transitioned {
		t.Errorf("Commit() after removal = %+v, want placed", out)
	}
}

func TestCommit_CapacityCheckedFirst(t *testing.T) {
	c := newTestCanvas(t, WithConfig(Config{MaxItems: 1}))
	ctx := context.Background()

	a := craft(t, c, "a")
	_, _ = c.Commit(ctx, a.ID, Gesture{DY: -500})

	b := craft(t, c, "b")
	out, _ := c.Commit(ctx, b.ID, Gesture{DY: 0})
	if out.Reason != ReasonCapacity {
		t.Errorf("Reason = %q, want %q", out.Reason, ReasonCapacity)
	}
}

func TestCommit_ZeroThresholdAndGap(t *testing.T) {
	c := newTestCanvas(t, WithConfig(Config{Threshold: Float(0), Gap: Float(0)}))
	if got := c.Config(); got.ThresholdValue() != 0 || got.GapValue() != 0 {
		t.Fatalf("explicit zeros replaced by defaults: threshold %g, gap %g", got.ThresholdValue(), got.GapValue())
	}
	ctx := context.Background()

	a := craft(t, c, "a")
	if out, _ := c.Commit(ctx, a.ID, Gesture{Drop: at(0, 0), DY: 1}); !out.Transitioned {
		t.Fatalf("DY 1 with zero threshold: %+v, want placed", out)
	}
	b := craft(t, c, "b")
	if out, _ := c.Commit(ctx, b.ID, Gesture{Drop: at(0, 0)}); out.Transitioned {
		t.Errorf("DY 0 with zero threshold: %+v, want rejected", out)
	}
	out, _ := c.Commit(ctx, b.ID, Gesture{Drop: at(0, 0), DY: -1})
	if want := (placement.Position{X: -100, Y: -100}); out.Item.Position != want {
		t.Errorf("zero gap placed at %v, want %v", out.Item.Position, want)
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	if cfg.ThresholdValue() != DefaultThreshold || cfg.GapValue() != placement.DefaultGap {
		t.Errorf("defaults: threshold %g, gap %g", cfg.ThresholdValue(), cfg.GapValue())
	}

	cfg = Config{Threshold: Float(0), Gap: Float(0)}
	cfg.SetDefaults()
	if *cfg.Threshold != 0 || *cfg.Gap != 0 {
		t.Errorf("explicit zeros overwritten: threshold %g, gap %g", *cfg.Threshold, *cfg.Gap)
	}
}

func TestCommit_Errors(t *testing.T) {
	c := newTestCanvas(t)
	ctx := context.Background()

	if _, err := c.Commit(ctx, "missing", Gesture{DY: -500}); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Commit(missing) error = %v, want NOT_FOUND", err)
	}

	it := craft(t, c, "hello")
	if _, err := c.Commit(ctx, it.ID, Gesture{DY: -500}); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if _, err := c.Commit(ctx, it.ID, Gesture{DY: -500}); !errors.Is(err, errors.ErrCodeInvalidTransition) {
		t.Errorf("second Commit() error = %v, want INVALID_TRANSITION", err)
	}
}

func TestRelocate(t *testing.T) {
	c := newTestCanvas(t)
	ctx := context.Background()

	a := craft(t, c, "a")
	b := craft(t, c, "b")
	_, _ = c.Commit(ctx, a.ID, Gesture{DY: -200}) // (100,100)
	_, _ = c.Commit(ctx, b.ID, Gesture{DY: -200}) // (-20,-20)

	// An item dropped onto its own spot stays there.
	out, err := c.Relocate(ctx, b.ID, placement.Position{X: -20, Y: -20})
	if err != nil {
		t.Fatalf("Relocate() error: %v", err)
	}
	if want := (placement.Position{X: -20, Y: -20}); out.Item.Position != want {
		t.Errorf("Relocate(self) = %v, want %v", out.Item.Position, want)
	}

	// Dropped next to b, a moves to the first free ring point.
	out, _ = c.Relocate(ctx, a.ID, placement.Position{X: 0, Y: 0})
	if want := (placement.Position{X: -120, Y: -120}); out.Item.Position != want {
		t.Errorf("Relocate(a) = %v, want %v", out.Item.Position, want)
	}
	if p, _ := c.ledger.Get(a.ID); p != out.Item.Position {
		t.Errorf("ledger = %v, want %v", p, out.Item.Position)
	}
	if !out.Transitioned || out.Item.State != Placed {
		t.Errorf("Relocate() = %+v", out)
	}
}

func TestRelocate_Uncommitted(t *testing.T) {
	c := newTestCanvas(t)
	it := craft(t, c, "hello")

	_, err := c.Relocate(context.Background(), it.ID, placement.Position{})
	if !errors.Is(err, errors.ErrCodeInvalidTransition) {
		t.Errorf("Relocate(uncommitted) error = %v, want INVALID_TRANSITION", err)
	}
}

func TestRemove(t *testing.T) {
	c := newTestCanvas(t)
	ctx := context.Background()

	queued := craft(t, c, "queued")
	placed := craft(t, c, "placed")
	_, _ = c.Commit(ctx, placed.ID, Gesture{DY: -200})

	for _, id := range []string{queued.ID, placed.ID} {
		out, err := c.Remove(ctx, id)
		if err != nil {
			t.Fatalf("Remove(%s) error: %v", id, err)
		}
		if out.Item.State != Removed {
			t.Errorf("State = %s, want removed", out.Item.State)
		}
		if _, err := c.Get(id); !errors.Is(err, errors.ErrCodeNotFound) {
			t.Errorf("Get(%s) after remove error = %v, want NOT_FOUND", id, err)
		}
	}
	if c.Len() != 0 || len(c.Items()) != 0 {
		t.Errorf("Len() = %d, Items() = %d, want empty", c.Len(), len(c.Items()))
	}
	if _, err := c.Remove(ctx, placed.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("second Remove() error = %v, want NOT_FOUND", err)
	}
}

func TestCommit_DegradedFallback(t *testing.T) {
	c := newTestCanvas(t, WithConfig(Config{Layers: 1}))
	ctx := context.Background()

	a := craft(t, c, "a")
	_, _ = c.Commit(ctx, a.ID, Gesture{DY: -200})

	b := craft(t, c, "b")
	out, err := c.Commit(ctx, b.ID, Gesture{DY: -200})
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if !out.Transitioned || !out.Degraded || out.Layer != placement.FallbackLayer {
		t.Errorf("Commit() = %+v, want degraded placement", out)
	}
	if !placement.DefaultFallback().Contains(out.Item.Position) {
		t.Errorf("Position %v outside fallback region", out.Item.Position)
	}
}

func TestCanvas_NoOverlapUnderConcurrency(t *testing.T) {
	c := newTestCanvas(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 40 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			it, err := c.Craft(fmt.Sprintf("concurrent-%d", i))
			if err != nil {
				t.Errorf("Craft() error: %v", err)
				return
			}
			if _, err := c.Commit(ctx, it.ID, Gesture{DY: -300}); err != nil {
				t.Errorf("Commit() error: %v", err)
			}
		}()
	}
	wg.Wait()

	if c.Len() != DefaultMaxItems {
		t.Errorf("Len() = %d, want %d", c.Len(), DefaultMaxItems)
	}
	if o := c.Overlaps(); len(o) != 0 {
		t.Errorf("Overlaps() = %v, want none", o)
	}
	if q := c.Queue(); len(q) != 40-DefaultMaxItems {
		t.Errorf("len(Queue()) = %d, want %d", len(q), 40-DefaultMaxItems)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := map[string]Config{
		"grid size":          {GridSize: 9},
		"negative max items": {MaxItems: -1},
		"negative threshold": {Threshold: Float(-5)},
		"negative gap":       {Gap: Float(-1)},
		"negative footprint": {Footprint: -1},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := New(nil, WithConfig(cfg)); !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("New() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestNew_SharedLedger(t *testing.T) {
	ledger := NewLedger()
	ledger.Set("restored", DefaultSeed)

	c, err := New(ledger, WithLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	it := craft(t, c, "hello")
	out, _ := c.Commit(context.Background(), it.ID, Gesture{DY: -200})
	if out.Item.Position == DefaultSeed {
		t.Error("commit ignored a position already in the ledger")
	}
	if ledger.Len() != 2 {
		t.Errorf("ledger.Len() = %d, want 2", ledger.Len())
	}
}

func TestSnapshot(t *testing.T) {
	c := newTestCanvas(t)
	ctx := context.Background()

	empty := string(c.Snapshot())
	if !strings.Contains(empty, `viewBox="0 0 0 0"`) {
		t.Errorf("Snapshot() of empty canvas = %q", empty)
	}

	a := craft(t, c, "hello")
	b := craft(t, c, "world")
	craft(t, c, "queued")
	_, _ = c.Commit(ctx, a.ID, Gesture{Drop: at(0, 0), DY: 150})
	_, _ = c.Commit(ctx, b.ID, Gesture{Drop: at(0, 0), DY: 150})

	svg := string(c.Snapshot(render.WithTitle("board")))
	if got := strings.Count(svg, "<g transform="); got != 2 {
		t.Errorf("Snapshot() groups = %d, want 2", got)
	}
	if !strings.Contains(svg, `translate(-120 -120)`) {
		t.Error("Snapshot() missing relocated tile at (-120,-120)")
	}
	if !strings.Contains(svg, `viewBox="-120 -120 220 220"`) {
		t.Errorf("Snapshot() header = %q", strings.SplitN(svg, "\n", 2)[0])
	}
	if strings.Contains(svg, "queued") {
		t.Error("Snapshot() should skip queued items")
	}
}

func TestState_Text(t *testing.T) {
	for _, s := range []State{Uncommitted, Placed, Removed} {
		text, _ := s.MarshalText()
		var got State
		if err := got.UnmarshalText(text); err != nil || got != s {
			t.Errorf("UnmarshalText(%q) = %v, %v, want %v", text, got, err, s)
		}
	}
	var s State
	if err := s.UnmarshalText([]byte("floating")); err == nil {
		t.Error("UnmarshalText(floating) should fail")
	}
}
