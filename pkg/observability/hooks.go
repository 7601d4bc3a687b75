// Package observability lets ideconfy report what it does without
// depending on a telemetry backend.
//
// Four hook interfaces cover rendering, the artifact cache, canvas
// placement and the HTTP server. Each starts as a no-op. The binary
// installs real implementations once at startup, so library packages
// only ever call the getters:
//
//	hooks := observability.Render()
//	hooks.OnRenderStart(ctx, formats)
//	data, err := render(...)
//	hooks.OnRenderComplete(ctx, formats, time.Since(start), err)
//
// [OTel] implements all four on top of OpenTelemetry metrics and traces:
//
//	otel, err := observability.NewOTel(meterProvider, tracerProvider)
//	if err != nil {
//	    return err
//	}
//	otel.Register()
//
// [NewLogTracerProvider] gives a tracer provider that writes spans to a
// charmbracelet logger, for local debugging without a collector.
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Hook Interfaces
// =============================================================================

// RenderHooks observes the render pipeline. Formats are normalized names
// such as "svg" and "png".
type RenderHooks interface {
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks observes cache lookups and writes. KeyType is "identicon" or
// "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// PlacementHooks observes canvas gestures and placer searches.
type PlacementHooks interface {
	// OnGesture fires for every commit, relocate or remove. Reason is set
	// only when the gesture left the item where it was.
	OnGesture(ctx context.Context, event string, transitioned bool, reason string)

	// OnPlacement fires after each search. Layer is -1 for a random fallback.
	OnPlacement(ctx context.Context, layer int, degraded bool, duration time.Duration)
}

// HTTPHooks observes the API server. OnRequest sees the raw URL path;
// OnResponse sees the matched chi route pattern.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

type (
	NoopRenderHooks    struct{}
	NoopCacheHooks     struct{}
	NoopPlacementHooks struct{}
	NoopHTTPHooks      struct{}
)

func (NoopRenderHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopRenderHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

func (NoopPlacementHooks) OnGesture(context.Context, string, bool, string)       {}
func (NoopPlacementHooks) OnPlacement(context.Context, int, bool, time.Duration) {}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// slot holds one registered hook implementation.
type slot[T any] struct {
	mu   sync.RWMutex
	cur  T
	noop T
}

func newSlot[T any](noop T) *slot[T] {
	return &slot[T]{cur: noop, noop: noop}
}

func (s *slot[T]) set(h T, ok bool) {
	if !ok {
		return
	}
	s.mu.Lock()
	s.cur = h
	s.mu.Unlock()
}

func (s *slot[T]) get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *slot[T]) reset() {
	s.mu.Lock()
	s.cur = s.noop
	s.mu.Unlock()
}

var (
	renderHooks    = newSlot[RenderHooks](NoopRenderHooks{})
	cacheHooks     = newSlot[CacheHooks](NoopCacheHooks{})
	placementHooks = newSlot[PlacementHooks](NoopPlacementHooks{})
	httpHooks      = newSlot[HTTPHooks](NoopHTTPHooks{})
)

// SetRenderHooks installs h for render events. Nil is ignored.
func SetRenderHooks(h RenderHooks) { renderHooks.set(h, h != nil) }

// SetCacheHooks installs h for cache events. Nil is ignored.
func SetCacheHooks(h CacheHooks) { cacheHooks.set(h, h != nil) }

// SetPlacementHooks installs h for canvas and placer events. Nil is ignored.
func SetPlacementHooks(h PlacementHooks) { placementHooks.set(h, h != nil) }

// SetHTTPHooks installs h for server events. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) { httpHooks.set(h, h != nil) }

// Render returns the installed render hooks.
func Render() RenderHooks { return renderHooks.get() }

// Cache returns the installed cache hooks.
func Cache() CacheHooks { return cacheHooks.get() }

// Placement returns the installed placement hooks.
func Placement() PlacementHooks { return placementHooks.get() }

// HTTP returns the installed HTTP hooks.
func HTTP() HTTPHooks { return httpHooks.get() }

// Reset puts every no-op implementation back. Tests and `serve --trace`
// use it to uninstall an adapter.
func Reset() {
	renderHooks.reset()
	cacheHooks.reset()
	placementHooks.reset()
	httpHooks.reset()
}
