package canvas

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/etulastrada/ideconfy/pkg/errors"
	"github.com/etulastrada/ideconfy/pkg/identicon"
	"github.com/etulastrada/ideconfy/pkg/observability"
	"github.com/etulastrada/ideconfy/pkg/placement"
)

// =============================================================================
// Types
// =============================================================================

// Item is an identicon tracked by a canvas. Position is meaningful only
// while State is Placed.
type Item struct {
	ID        string              `json:"id"`
	Content   string              `json:"content"`
	Identicon identicon.Identicon `json:"identicon"`
	State     State               `json:"state"`
	Position  placement.Position  `json:"position"`
	Degraded  bool                `json:"degraded,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// Gesture is a drag released by the user. Drop is where the pointer was
// released in canvas coordinates; nil means DefaultSeed. DX and DY are the
// total drag offset.
type Gesture struct {
	Drop   *placement.Position
	DX, DY float64
}

// Seed returns the drop point or DefaultSeed.
func (g Gesture) Seed() placement.Position {
	if g.Drop == nil {
		return DefaultSeed
	}
	return *g.Drop
}

// Reason explains why a gesture produced no transition.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonBelowThreshold Reason = "below_threshold"
	ReasonCapacity       Reason = "capacity"
)

// Outcome describes the effect of a gesture. A rejected commit is an
// Outcome with Transitioned false, not an error.
type Outcome struct {
	Item         Item   `json:"item"`
	Event        string `json:"event"`
	Transitioned bool   `json:"transitioned"`
	Reason       Reason `json:"reason,omitempty"`
	// Layer is the placer ring used, or placement.FallbackLayer.
	Layer    int  `json:"layer"`
	Degraded bool `json:"degraded,omitempty"`
}

// =============================================================================
// Canvas
// =============================================================================

// Canvas owns a crafting queue and a ledger of placed identicons. All
// methods are safe for concurrent use; reading the occupied positions and
// writing the new ledger entry happen under one lock.
type Canvas struct {
	mu     sync.Mutex
	cfg    Config
	ledger *Ledger
	items  map[string]*Item
	order  []string

	logger *log.Logger
	rng    *rand.Rand
	now    func() time.Time
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithConfig replaces the default configuration. Unset fields take defaults.
func WithConfig(cfg Config) Option {
	return func(c *Canvas) {
		cfg.SetDefaults()
		c.cfg = cfg
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *log.Logger) Option {
	return func(c *Canvas) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRand sets the random source used by the placer fallback.
func WithRand(r *rand.Rand) Option {
	return func(c *Canvas) {
		c.rng = r
	}
}

// WithClock sets the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Canvas) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a canvas on top of ledger. A nil ledger starts empty. Ledger
// entries without a matching item still count as occupied and toward
// capacity.
func New(ledger *Ledger, opts ...Option) (*Canvas, error) {
	if ledger == nil {
		ledger = NewLedger()
	}
	c := &Canvas{
		cfg:    DefaultConfig(),
		ledger: ledger,
		items:  make(map[string]*Item),
		logger: log.Default(),
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Config returns the effective configuration.
func (c *Canvas) Config() Config {
	return c.cfg
}

// Craft generates the identicon for content and queues it as Uncommitted.
// Content is stored and hashed exactly as given; blank content is rejected.
func (c *Canvas) Craft(content string) (Item, error) {
	if err := errors.ValidateContent(content); err != nil {
		return Item{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := identicon.Generate(content, c.cfg.GridSize)
	if err != nil {
		return Item{}, err
	}
	uid, err := uuid.NewV7()
	if err != nil {
		return Item{}, errors.Wrap(errors.ErrCodeInternal, err, "generate item id")
	}

	it := &Item{
		ID:        uid.String(),
		Content:   content,
		Identicon: id,
		State:     Uncommitted,
		CreatedAt: c.now(),
	}
	c.items[it.ID] = it
	c.order = append(c.order, it.ID)

	c.logger.Debug("crafted identicon", "item", it.ID, "content", content, "color", id.Color.Hex())
	return *it, nil
}

// Commit applies a drag gesture to a queued item. The item is placed only
// when the canvas has room and the gesture crosses the threshold; otherwise
// the outcome carries the rejection reason and nothing changes.
func (c *Canvas) Commit(ctx context.Context, id string, g Gesture) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, next, err := c.transition(id, Commit)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Event: Commit.String(), Layer: placement.FallbackLayer}
	switch {
	case c.ledger.Len() >= c.cfg.MaxItems:
		out.Reason = ReasonCapacity
	case !c.cfg.Crosses(g):
		out.Reason = ReasonBelowThreshold
	}
	if out.Reason != ReasonNone {
		out.Item = *it
		c.logger.Debug("commit rejected", "item", id, "reason", out.Reason, "dy", g.DY, "placed", c.ledger.Len())
		observability.Placement().OnGesture(ctx, out.Event, false, string(out.Reason))
		return out, nil
	}

	res := c.place(ctx, id, g.Seed())
	c.ledger.Set(id, res.Position)
	it.State = next
	it.Position = res.Position
	it.Degraded = res.Degraded

	out.Item = *it
	out.Transitioned = true
	out.Layer = res.Layer
	out.Degraded = res.Degraded

	c.logger.Info("placed identicon", "item", id, "x", res.Position.X, "y", res.Position.Y, "layer", res.Layer)
	observability.Placement().OnGesture(ctx, out.Event, true, "")
	return out, nil
}

// Relocate moves a placed item to the free lattice point nearest drop,
// ignoring the item's own current position.
func (c *Canvas) Relocate(ctx context.Context, id string, drop placement.Position) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, next, err := c.transition(id, Relocate)
	if err != nil {
		return Outcome{}, err
	}

	res := c.place(ctx, id, drop)
	c.ledger.Set(id, res.Position)
	it.State = next
	it.Position = res.Position
	it.Degraded = res.Degraded

	c.logger.Info("relocated identicon", "item", id, "x", res.Position.X, "y", res.Position.Y, "layer", res.Layer)
	observability.Placement().OnGesture(ctx, Relocate.String(), true, "")
	return Outcome{
		Item:         *it,
		Event:        Relocate.String(),
		Transitioned: true,
		Layer:        res.Layer,
		Degraded:     res.Degraded,
	}, nil
}

// Remove discards a queued item or takes a placed item off the canvas.
// The item is forgotten afterwards.
func (c *Canvas) Remove(ctx context.Context, id string) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, next, err := c.transition(id, Remove)
	if err != nil {
		return Outcome{}, err
	}

	c.ledger.Delete(id)
	delete(c.items, id)
	c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == id })
	it.State = next

	c.logger.Info("removed identicon", "item", id)
	observability.Placement().OnGesture(ctx, Remove.String(), true, "")
	return Outcome{
		Item:         *it,
		Event:        Remove.String(),
		Transitioned: true,
		Layer:        placement.FallbackLayer,
	}, nil
}

// Get returns a copy of the item with id.
func (c *Canvas) Get(id string) (Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[id]
	if !ok {
		return Item{}, errors.New(errors.ErrCodeNotFound, "item %q not found", id)
	}
	return *it, nil
}

// Items returns every live item in craft order.
func (c *Canvas) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collect(func(*Item) bool { return true })
}

// Queue returns the uncommitted items in craft order.
func (c *Canvas) Queue() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collect(func(it *Item) bool { return it.State == Uncommitted })
}

// Placed returns the placed items in the order they were first placed.
func (c *Canvas) Placed() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Item
	for _, id := range c.ledger.IDs() {
		if it, ok := c.items[id]; ok {
			out = append(out, *it)
		}
	}
	return out
}

// Len returns the number of placed items.
func (c *Canvas) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Len()
}

// Overlaps reports placed items that violate the footprint, which only
// happens after a degraded placement.
func (c *Canvas) Overlaps() []Overlap {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Overlaps(c.cfg.Footprint)
}

// =============================================================================
// Internals (callers hold c.mu)
// =============================================================================

func (c *Canvas) transition(id string, e Event) (*Item, State, error) {
	it, ok := c.items[id]
	if !ok {
		return nil, 0, errors.New(errors.ErrCodeNotFound, "item %q not found", id)
	}
	next, ok := Next(it.State, e)
	if !ok {
		return nil, 0, errors.New(errors.ErrCodeInvalidTransition, "cannot %s a %s item", e, it.State)
	}
	return it, next, nil
}

func (c *Canvas) place(ctx context.Context, id string, seed placement.Position) placement.Result {
	start := time.Now()
	opts := append(c.cfg.placementOptions(), placement.WithRand(c.rng))
	res := placement.FindFreePosition(seed, c.ledger.Positions(id), c.cfg.Footprint, opts...)
	observability.Placement().OnPlacement(ctx, res.Layer, res.Degraded, time.Since(start))

	if res.Degraded {
		c.logger.Warn("canvas crowded, placed at random position",
			"item", id, "seed", seed, "position", res.Position)
	}
	return res
}

func (c *Canvas) collect(keep func(*Item) bool) []Item {
	var out []Item
	for _, id := range c.order {
		if it := c.items[id]; keep(it) {
			out = append(out, *it)
		}
	}
	return out
}
