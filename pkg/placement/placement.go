// Package placement finds a free spot for an identicon on an unbounded 2D
// canvas.
//
// [FindFreePosition] walks a square lattice centered on a seed point, one
// concentric ring at a time, and returns the first lattice point whose
// distance to every occupied position strictly exceeds the footprint. The
// lattice step is footprint + gap, so neighboring candidates never overlap
// each other.
//
// Within ring k the offsets (i, j) with max(|i|, |j|) == k are visited with
// i (the x offset) in the outer loop and j (the y offset) in the inner loop,
// both ascending from -k to k. The walk is deterministic: identical inputs
// always yield the identical position.
//
// When every candidate in the first Layers rings is blocked, the search
// falls back to a uniformly random point in a fixed region. That point may
// overlap; the [Result] is flagged Degraded so callers can report it.
//
//	res := placement.FindFreePosition(placement.Position{}, occupied, 100)
//	if res.Degraded {
//	    logger.Warn("canvas crowded, placed randomly", "pos", res.Position)
//	}
package placement

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Default lattice parameters.
const (
	DefaultGap       = 20.0
	DefaultLayers    = 10
	DefaultFootprint = 100.0

	// FallbackLayer is the Result.Layer of a random fallback position.
	FallbackLayer = -1
)

// DefaultFallback returns the region sampled when the lattice is exhausted.
func DefaultFallback() Region {
	return Region{MinX: 0, MinY: 0, MaxX: 500, MaxY: 500}
}

// Position is a point on the canvas.
type Position struct {
	X float64 `json:"x" toml:"x" yaml:"x"`
	Y float64 `json:"y" toml:"y" yaml:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p Position) Distance(q Position) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Add offsets p by (dx, dy).
func (p Position) Add(dx, dy float64) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

func (p Position) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// Region is a half-open rectangle [MinX,MaxX) x [MinY,MaxY).
type Region struct {
	MinX float64 `json:"min_x" toml:"min_x" yaml:"min_x"`
	MinY float64 `json:"min_y" toml:"min_y" yaml:"min_y"`
	MaxX float64 `json:"max_x" toml:"max_x" yaml:"max_x"`
	MaxY float64 `json:"max_y" toml:"max_y" yaml:"max_y"`
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool {
	return r.MaxX <= r.MinX || r.MaxY <= r.MinY
}

// Contains reports whether p lies inside the region.
func (r Region) Contains(p Position) bool {
	return p.X >= r.MinX && p.X < r.MaxX && p.Y >= r.MinY && p.Y < r.MaxY
}

// Sample returns a uniformly random point inside the region.
func (r Region) Sample(rng *rand.Rand) Position {
	return Position{
		X: r.MinX + rng.Float64()*(r.MaxX-r.MinX),
		Y: r.MinY + rng.Float64()*(r.MaxY-r.MinY),
	}
}

// Result is the outcome of a placement search.
type Result struct {
	Position Position `json:"position"`
	// Layer is the ring the position came from, or FallbackLayer.
	Layer int `json:"layer"`
	// Degraded is set when the lattice was exhausted and Position was
	// drawn at random. It may overlap an occupied position.
	Degraded bool `json:"degraded,omitempty"`
}

// =============================================================================
// Options
// =============================================================================

type options struct {
	gap      float64
	layers   int
	fallback Region
	rng      *rand.Rand
}

// Option configures FindFreePosition.
type Option func(*options)

// WithGap sets the spacing added to the footprint to form the lattice step.
// Negative values are ignored.
func WithGap(gap float64) Option {
	return func(o *options) {
		if gap >= 0 {
			o.gap = gap
		}
	}
}

// WithLayers sets how many rings are searched before falling back.
// Values below 1 are ignored.
func WithLayers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.layers = n
		}
	}
}

// WithFallback sets the region sampled when the lattice is exhausted.
// An empty region is ignored.
func WithFallback(r Region) Option {
	return func(o *options) {
		if !r.Empty() {
			o.fallback = r
		}
	}
}

// WithRand sets the random source for the fallback.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rng = r
	}
}

func buildOptions(opts []Option) options {
	o := options{
		gap:      DefaultGap,
		layers:   DefaultLayers,
		fallback: DefaultFallback(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// =============================================================================
// Search
// =============================================================================

// FindFreePosition returns the first lattice point around seed that is
// clear of every occupied position, or a random fallback when none is.
// A non-positive footprint is replaced by DefaultFootprint.
func FindFreePosition(seed Position, occupied []Position, footprint float64, opts ...Option) Result {
	if footprint <= 0 {
		footprint = DefaultFootprint
	}
	o := buildOptions(opts)
	step := footprint + o.gap

	for k := 0; k < o.layers; k++ {
		var found *Position
		Ring(k, func(i, j int) bool {
			candidate := seed.Add(float64(i)*step, float64(j)*step)
			if IsClear(candidate, occupied, footprint) {
				found = &candidate
				return false
			}
			return true
		})
		if found != nil {
			return Result{Position: *found, Layer: k}
		}
	}

	rng := o.rng
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return Result{
		Position: o.fallback.Sample(rng),
		Layer:    FallbackLayer,
		Degraded: true,
	}
}

// IsClear reports whether p is strictly farther than footprint from every
// occupied position.
func IsClear(p Position, occupied []Position, footprint float64) bool {
	for _, q := range occupied {
		if p.Distance(q) <= footprint {
			return false
		}
	}
	return true
}

// Ring calls visit for each lattice offset (i, j) on ring k, that is every
// offset with max(|i|, |j|) == k, x offset outer and y offset inner. Ring 0
// is the single offset (0, 0). Iteration stops when visit returns false.
func Ring(k int, visit func(i, j int) bool) {
	if k < 0 {
		return
	}
	for i := -k; i <= k; i++ {
		for j := -k; j <= k; j++ {
			if max(abs(i), abs(j)) != k {
				continue
			}
			if !visit(i, j) {
				return
			}
		}
	}
}

// Capacity returns how many lattice points the first layers rings hold.
func Capacity(layers int) int {
	if layers <= 0 {
		return 0
	}
	side := 2*layers - 1
	return side * side
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
