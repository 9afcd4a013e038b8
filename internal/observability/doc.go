// Package observability provides the logging, metrics and tracing infrastructure of the
// update pipeline.
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus collectors for runs, charts and sources
//   - tracing: OpenTelemetry tracer used to span chart builds
//
// Example usage:
//
//	import (
//	    "foodsecurity-charts/internal/observability/logging"
//	    "foodsecurity-charts/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("update started")
//
//	    metrics.RecordChartBuild("fao_fpi_main", time.Second, 310)
//	}
package observability
