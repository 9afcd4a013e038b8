// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all pipeline metrics including:
//   - Run metrics (count by status, duration, last success)
//   - Chart metrics (build duration, rows written, failures)
//   - Source metrics (fetch count by status, fetch duration)
//   - Data quality metrics (unresolved country names per source)
//
// All metrics are registered with the Prometheus default registry. The update command
// is a batch job and has no /metrics endpoint; WriteTextfile dumps the registry in the
// text exposition format for the node exporter textfile collector.
//
// Example usage:
//
//	import "foodsecurity-charts/internal/observability/metrics"
//
//	func buildChart(name string) {
//	    start := time.Now()
//	    // ... build and write the chart ...
//	    metrics.RecordChartBuild(name, time.Since(start), rows)
//	}
package metrics
