package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordRun records the outcome and duration of a pipeline run.
// A successful run also moves the last-success timestamp.
func RecordRun(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	PipelineRunsTotal.WithLabelValues(status).Inc()
	PipelineRunDuration.Observe(duration.Seconds())
	if success {
		PipelineLastSuccessTimestamp.SetToCurrentTime()
	}
}

// RecordChartBuild records a successful chart build.
func RecordChartBuild(chart string, duration time.Duration, rows int) {
	ChartBuildDuration.WithLabelValues(chart).Observe(duration.Seconds())
	ChartRowsWritten.WithLabelValues(chart).Set(float64(rows))
}

// RecordChartError records a failed chart build.
func RecordChartError(chart string) {
	ChartBuildErrors.WithLabelValues(chart).Inc()
}

// RecordSourceFetch records one download attempt sequence against a provider.
func RecordSourceFetch(source string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	SourceFetchTotal.WithLabelValues(source, status).Inc()
	SourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordCircuitState records a circuit breaker state by its name ("closed",
// "half-open", "open").
func RecordCircuitState(circuit, state string) {
	value := 0.0
	switch state {
	case "half-open":
		value = 1
	case "open":
		value = 2
	}
	CircuitState.WithLabelValues(circuit).Set(value)
}

// RecordUnresolvedCountry counts one distinct unresolved country name.
func RecordUnresolvedCountry(source string) {
	UnresolvedCountriesTotal.WithLabelValues(source).Inc()
}

// WriteTextfile writes every metric of the default registry to path in the Prometheus
// text format. The file is written atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
