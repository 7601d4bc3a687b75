package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName is the meter and tracer scope.
const instrumentationName = "github.com/etulastrada/ideconfy"

// OTel implements every hook interface on top of OpenTelemetry. Each
// completed operation becomes a span backdated to its start time plus a
// counter and, where timed, a duration histogram in milliseconds.
type OTel struct {
	tracer trace.Tracer

	renders        metric.Int64Counter
	renderDuration metric.Float64Histogram
	cacheOps       metric.Int64Counter
	cacheBytes     metric.Int64Counter
	gestures       metric.Int64Counter
	placements     metric.Int64Counter
	placeDuration  metric.Float64Histogram
	requests       metric.Int64Counter
	reqDuration    metric.Float64Histogram
}

var (
	_ RenderHooks    = (*OTel)(nil)
	_ CacheHooks     = (*OTel)(nil)
	_ PlacementHooks = (*OTel)(nil)
	_ HTTPHooks      = (*OTel)(nil)
)

// NewOTel creates the adapter. Nil providers fall back to the global ones
// registered with the otel package.
func NewOTel(mp metric.MeterProvider, tp trace.TracerProvider) (*OTel, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	meter := mp.Meter(instrumentationName)
	o := &OTel{tracer: tp.Tracer(instrumentationName)}

	var err error
	if o.renders, err = meter.Int64Counter("ideconfy.render.count",
		metric.WithDescription("Number of render pipeline runs"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create render counter: %w", err)
	}
	if o.renderDuration, err = meter.Float64Histogram("ideconfy.render.duration",
		metric.WithDescription("Render duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("create render histogram: %w", err)
	}
	if o.cacheOps, err = meter.Int64Counter("ideconfy.cache.operations",
		metric.WithDescription("Cache hits, misses and writes"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create cache counter: %w", err)
	}
	if o.cacheBytes, err = meter.Int64Counter("ideconfy.cache.bytes_written",
		metric.WithDescription("Bytes written to the artifact cache"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, fmt.Errorf("create cache bytes counter: %w", err)
	}
	if o.gestures, err = meter.Int64Counter("ideconfy.canvas.gestures",
		metric.WithDescription("Canvas gestures by event and outcome"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create gesture counter: %w", err)
	}
	if o.placements, err = meter.Int64Counter("ideconfy.placement.count",
		metric.WithDescription("Placer searches by degraded flag"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create placement counter: %w", err)
	}
	if o.placeDuration, err = meter.Float64Histogram("ideconfy.placement.duration",
		metric.WithDescription("Placer search duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("create placement histogram: %w", err)
	}
	if o.requests, err = meter.Int64Counter("ideconfy.http.requests",
		metric.WithDescription("HTTP requests served"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create request counter: %w", err)
	}
	if o.reqDuration, err = meter.Float64Histogram("ideconfy.http.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("create request histogram: %w", err)
	}
	return o, nil
}

// Register installs o as every global hook.
func (o *OTel) Register() {
	SetRenderHooks(o)
	SetCacheHooks(o)
	SetPlacementHooks(o)
	SetHTTPHooks(o)
}

// span records a finished operation that started duration ago.
func (o *OTel) span(ctx context.Context, name string, duration time.Duration, err error, attrs ...attribute.KeyValue) {
	end := time.Now()
	_, span := o.tracer.Start(ctx, name,
		trace.WithTimestamp(end.Add(-duration)),
		trace.WithAttributes(attrs...),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// =============================================================================
// RenderHooks
// =============================================================================

func (o *OTel) OnRenderStart(context.Context, []string) {}

func (o *OTel) OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("render.formats", strings.Join(formats, ",")),
		attribute.Bool("render.ok", err == nil),
	}
	o.span(ctx, "ideconfy.render", duration, err, attrs...)
	o.renders.Add(ctx, 1, metric.WithAttributes(attrs...))
	o.renderDuration.Record(ctx, ms(duration), metric.WithAttributes(attrs...))
}

// =============================================================================
// CacheHooks
// =============================================================================

func (o *OTel) OnCacheHit(ctx context.Context, keyType string) {
	o.cacheOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.key_type", keyType),
		attribute.String("cache.result", "hit"),
	))
}

func (o *OTel) OnCacheMiss(ctx context.Context, keyType string) {
	o.cacheOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.key_type", keyType),
		attribute.String("cache.result", "miss"),
	))
}

func (o *OTel) OnCacheSet(ctx context.Context, keyType string, size int) {
	attrs := metric.WithAttributes(attribute.String("cache.key_type", keyType))
	o.cacheOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.key_type", keyType),
		attribute.String("cache.result", "set"),
	))
	o.cacheBytes.Add(ctx, int64(size), attrs)
}

// =============================================================================
// PlacementHooks
// =============================================================================

func (o *OTel) OnGesture(ctx context.Context, event string, transitioned bool, reason string) {
	o.gestures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("canvas.event", event),
		attribute.Bool("canvas.transitioned", transitioned),
		attribute.String("canvas.reason", reason),
	))
}

func (o *OTel) OnPlacement(ctx context.Context, layer int, degraded bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.Int("placement.layer", layer),
		attribute.Bool("placement.degraded", degraded),
	}
	o.span(ctx, "ideconfy.placement", duration, nil, attrs...)
	o.placements.Add(ctx, 1, metric.WithAttributes(attribute.Bool("placement.degraded", degraded)))
	o.placeDuration.Record(ctx, ms(duration))
}

// =============================================================================
// HTTPHooks
// =============================================================================

func (o *OTel) OnRequest(context.Context, string, string) {}

func (o *OTel) OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.response.status_code", statusCode),
	}
	var err error
	if statusCode >= 500 {
		err = fmt.Errorf("status %d", statusCode)
	}
	o.span(ctx, method+" "+route, duration, err, attrs...)
	o.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	o.reqDuration.Record(ctx, ms(duration), metric.WithAttributes(attrs...))
}
