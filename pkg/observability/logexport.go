package observability

import (
	"context"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogSpanExporter writes finished spans to a logger at debug level. It
// lets `serve --trace` show render and placement spans without a collector.
type LogSpanExporter struct {
	logger *log.Logger
}

var _ sdktrace.SpanExporter = (*LogSpanExporter)(nil)

// NewLogSpanExporter creates an exporter that logs to logger.
func NewLogSpanExporter(logger *log.Logger) *LogSpanExporter {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSpanExporter{logger: logger.WithPrefix("trace")}
}

// ExportSpans logs each span with its duration, status and attributes.
func (e *LogSpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		keyvals := []any{
			"duration", s.EndTime().Sub(s.StartTime()),
			"status", s.Status().Code.String(),
			"trace_id", s.SpanContext().TraceID().String(),
		}
		for _, kv := range s.Attributes() {
			keyvals = append(keyvals, string(kv.Key), kv.Value.Emit())
		}
		e.logger.Debug(s.Name(), keyvals...)
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (e *LogSpanExporter) Shutdown(context.Context) error {
	return nil
}

// NewLogTracerProvider returns a tracer provider that exports every span
// synchronously through a LogSpanExporter.
func NewLogTracerProvider(logger *log.Logger, service string) *sdktrace.TracerProvider {
	res := resource.NewSchemaless(attribute.String("service.name", service))
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(NewLogSpanExporter(logger))),
		sdktrace.WithResource(res),
	)
}
