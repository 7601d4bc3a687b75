package canvas

import (
	"math"

	"github.com/etulastrada/ideconfy/pkg/errors"
	"github.com/etulastrada/ideconfy/pkg/identicon"
	"github.com/etulastrada/ideconfy/pkg/placement"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultMaxItems caps how many items can be placed at once.
	DefaultMaxItems = 12

	// DefaultThreshold is the vertical drag distance a commit gesture must
	// strictly exceed.
	DefaultThreshold = 100.0
)

// DefaultSeed is where a committed item is searched from when the gesture
// carries no drop point.
var DefaultSeed = placement.Position{X: 100, Y: 100}

// Config holds canvas geometry and limits. Zero fields take defaults in
// SetDefaults, except Threshold and Gap, where zero is a valid setting and
// only nil means unset.
type Config struct {
	MaxItems  int      `json:"max_items" toml:"max_items" yaml:"max_items"`
	Threshold *float64 `json:"threshold,omitempty" toml:"threshold" yaml:"threshold"`
	Footprint float64  `json:"footprint" toml:"footprint" yaml:"footprint"`
	Gap       *float64 `json:"gap,omitempty" toml:"gap" yaml:"gap"`
	Layers    int      `json:"layers" toml:"layers" yaml:"layers"`
	GridSize  int      `json:"grid_size" toml:"grid_size" yaml:"grid_size"`

	Fallback placement.Region `json:"fallback" toml:"fallback" yaml:"fallback"`
}

// DefaultConfig returns the stock canvas configuration.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.MaxItems == 0 {
		c.MaxItems = DefaultMaxItems
	}
	if c.Threshold == nil {
		c.Threshold = Float(DefaultThreshold)
	}
	if c.Footprint == 0 {
		c.Footprint = placement.DefaultFootprint
	}
	if c.Gap == nil {
		c.Gap = Float(placement.DefaultGap)
	}
	if c.Layers == 0 {
		c.Layers = placement.DefaultLayers
	}
	if c.GridSize == 0 {
		c.GridSize = identicon.DefaultSize
	}
	if c.Fallback.Empty() {
		c.Fallback = placement.DefaultFallback()
	}
}

// Float returns a pointer to v, for setting Threshold and Gap.
func Float(v float64) *float64 {
	return &v
}

// ThresholdValue returns the commit threshold, or the default when unset.
func (c Config) ThresholdValue() float64 {
	if c.Threshold == nil {
		return DefaultThreshold
	}
	return *c.Threshold
}

// GapValue returns the lattice gap, or the default when unset.
func (c Config) GapValue() float64 {
	if c.Gap == nil {
		return placement.DefaultGap
	}
	return *c.Gap
}

// Validate checks the configuration after defaults are applied.
func (c Config) Validate() error {
	if c.MaxItems < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_items must be positive, got %d", c.MaxItems)
	}
	if t := c.ThresholdValue(); t < 0 || math.IsNaN(t) {
		return errors.New(errors.ErrCodeInvalidConfig, "threshold must be non-negative, got %g", t)
	}
	if c.Footprint <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "footprint must be positive, got %g", c.Footprint)
	}
	if g := c.GapValue(); g < 0 || math.IsNaN(g) {
		return errors.New(errors.ErrCodeInvalidConfig, "gap must be non-negative, got %g", g)
	}
	if c.Layers < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "layers must be positive, got %d", c.Layers)
	}
	if c.Fallback.Empty() {
		return errors.New(errors.ErrCodeInvalidConfig, "fallback region is empty")
	}
	return identicon.ValidateSize(c.GridSize)
}

// Crosses reports whether g travels far enough vertically to commit.
// A displacement exactly equal to the threshold does not.
func (c Config) Crosses(g Gesture) bool {
	return math.Abs(g.DY) > c.ThresholdValue()
}

func (c Config) placementOptions() []placement.Option {
	return []placement.Option{
		placement.WithGap(c.GapValue()),
		placement.WithLayers(c.Layers),
		placement.WithFallback(c.Fallback),
	}
}
