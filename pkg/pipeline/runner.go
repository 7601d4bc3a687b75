package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/etulastrada/ideconfy/pkg/cache"
	"github.com/etulastrada/ideconfy/pkg/errors"
	"github.com/etulastrada/ideconfy/pkg/identicon"
	"github.com/etulastrada/ideconfy/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// ArtifactTTL is how long rendered bytes stay cached. Zero means
	// cache.TTLArtifact.
	ArtifactTTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete generate → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Generate
	genStart := time.Now()
	id, err := identicon.Generate(opts.Content, opts.Size)
	if err != nil {
		return nil, err
	}
	result.Identicon = id
	result.Stats.GenerateTime = time.Since(genStart)

	r.Logger.Debug("generated identicon",
		"digest", id.Digest[:12],
		"color", id.Color.Hex(),
		"size", opts.Size)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, id, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheHit = hit
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered identicon",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Identicon returns the identicon for content, reading and writing its JSON
// form under the identicon cache key. Cache failures only cost a
// regeneration.
func (r *Runner) Identicon(ctx context.Context, content string, size int) (identicon.Identicon, bool, error) {
	if err := errors.ValidateContent(content); err != nil {
		return identicon.Identicon{}, false, err
	}
	if err := identicon.ValidateSize(size); err != nil {
		return identicon.Identicon{}, false, err
	}
	key := r.Keyer.IdenticonKey(string(identicon.NewDigest(content)), size)

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var id identicon.Identicon
		if err := json.Unmarshal(data, &id); err == nil && id.Content == content {
			observability.Cache().OnCacheHit(ctx, "identicon")
			return id, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "identicon")

	id, err := identicon.Generate(content, size)
	if err != nil {
		return identicon.Identicon{}, false, err
	}
	if data, err := json.Marshal(id); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLIdenticon); err != nil {
			r.Logger.Warn("cache write failed", "key", "identicon", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "identicon", len(data))
		}
	}
	return id, false, nil
}

// RenderWithCacheInfo renders every requested format, serving all of them
// from the cache when possible, and reports whether it did.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, id identicon.Identicon, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	digest := string(id.Digest)

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(digest, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil {
				r.Logger.Warn("cache read failed", "format", format, "err", err)
				break
			}
			if !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	hooks := observability.Render()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(id, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(digest, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, r.artifactTTL()); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return rendered, false, nil
}

func (r *Runner) artifactTTL() time.Duration {
	if r.ArtifactTTL > 0 {
		return r.ArtifactTTL
	}
	return cache.TTLArtifact
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, id identicon.Identicon, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, id, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
