package logpipe

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Trace property names, following the OpenTelemetry log data model.
const (
	PropTraceID      = "trace_id"
	PropSpanID       = "span_id"
	PropTraceSampled = "trace_sampled"
)

// TraceEnricher links entries to the OpenTelemetry span active in ctx.
// Entries logged outside a valid span are left untouched.
type TraceEnricher struct{}

// Enrich implements Enricher.
func (TraceEnricher) Enrich(ctx context.Context, e *Entry) {
	if ctx == nil {
		return
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return
	}
	e.AddPropertyIfAbsent(PropTraceID, sc.TraceID().String())
	e.AddPropertyIfAbsent(PropSpanID, sc.SpanID().String())
	if sc.IsSampled() {
		e.AddPropertyIfAbsent(PropTraceSampled, true)
	}
}
