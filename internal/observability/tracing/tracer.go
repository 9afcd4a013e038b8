package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope of the pipeline.
const tracerName = "foodsecurity-charts"

// GetTracer returns the tracer for creating spans.
// It is resolved from the global provider on every call so a provider installed
// after package init (for example in tests) is picked up.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "chart.build")
//	defer span.End()
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
