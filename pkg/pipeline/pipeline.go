// Package pipeline provides the generate → render pipeline shared by the
// CLI and the HTTP API.
//
// By centralizing this logic, both entry points apply the same defaults,
// validation and caching.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Generate: hash the content into an identicon (color and pattern)
//  2. Render: produce SVG and raster artifacts in the requested formats
//
// Rendered artifacts are cached per digest and render options, so repeated
// requests for the same content and size are served from the cache.
// Runner.Identicon separately caches the generated identicon itself.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Content: "hello",
//	    Formats: []string{"svg", "png"},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/etulastrada/ideconfy/pkg/cache"
	"github.com/etulastrada/ideconfy/pkg/errors"
	"github.com/etulastrada/ideconfy/pkg/identicon"
	"github.com/etulastrada/ideconfy/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultScale is the SVG cell side.
	DefaultScale = render.CanvasScale

	// MaxRasterSide bounds raster width and height.
	MaxRasterSide = 4096

	// MaxScale bounds the SVG cell side.
	MaxScale = 1000.0
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline run. It supports JSON for API requests.
type Options struct {
	Content string   `json:"content"`
	Size    int      `json:"size,omitempty"`
	Scale   float64  `json:"scale,omitempty"`  // SVG cell side
	Width   int      `json:"width,omitempty"`  // raster width
	Height  int      `json:"height,omitempty"` // raster height
	Formats []string `json:"formats,omitempty"`
	Refresh bool     `json:"refresh,omitempty"` // bypass cache reads

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Identicon identicon.Identicon

	// Artifacts contains rendered outputs keyed by format name.
	Artifacts map[string][]byte

	Stats Stats

	// CacheHit is set when every artifact came from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	GenerateTime time.Duration
	RenderTime   time.Duration
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every field and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidateContent(o.Content); err != nil {
		return err
	}
	o.SetDefaults()

	if err := identicon.ValidateSize(o.Size); err != nil {
		return err
	}
	if !(o.Scale > 0) || o.Scale > MaxScale {
		return errors.New(errors.ErrCodeInvalidConfig, "scale must be in (0, %g], got %g", MaxScale, o.Scale)
	}
	if o.Width <= 0 || o.Height <= 0 || o.Width > MaxRasterSide || o.Height > MaxRasterSide {
		return errors.New(errors.ErrCodeInvalidConfig, "raster size must be within 1..%d, got %dx%d", MaxRasterSide, o.Width, o.Height)
	}

	formats := make([]string, 0, len(o.Formats))
	for _, name := range o.Formats {
		f, err := render.ParseFormat(name)
		if err != nil {
			return err
		}
		if !slices.Contains(formats, string(f)) {
			formats = append(formats, string(f))
		}
	}
	o.Formats = formats

	o.validated = true
	return nil
}

// SetDefaults fills zero fields. Raster dimensions default to the export
// size for the grid (210x210 for 5x5).
func (o *Options) SetDefaults() {
	if o.Size == 0 {
		o.Size = identicon.DefaultSize
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	side := int(float64(o.Size) * render.ExportScale)
	if o.Width == 0 {
		o.Width = side
	}
	if o.Height == 0 {
		o.Height = side
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{string(render.FormatSVG)}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ArtifactKeyOpts returns the cache key options for one format. Only the
// dimensions that affect that format's bytes are included.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format, Size: o.Size}
	if format == string(render.FormatSVG) {
		opts.Scale = o.Scale
	} else {
		opts.Width, opts.Height = o.Width, o.Height
	}
	return opts
}
