// Package tracing provides OpenTelemetry tracing integration.
//
// Each pipeline run opens a root span and one child span per chart build. No exporter
// is installed by default; the global no-op provider makes spans free unless a
// provider is registered with otel.SetTracerProvider.
//
// Example usage:
//
//	import "foodsecurity-charts/internal/observability/tracing"
//
//	func build(ctx context.Context, name string) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "chart.build")
//	    defer span.End()
//	    // ... build chart ...
//	}
package tracing
