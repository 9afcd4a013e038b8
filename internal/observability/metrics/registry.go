package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run metrics track whole pipeline executions
var (
	// PipelineRunsTotal counts pipeline runs by status (success, failure)
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodsec_pipeline_runs_total",
			Help: "Total number of pipeline runs by status",
		},
		[]string{"status"},
	)

	// PipelineRunDuration measures how long a full run takes
	PipelineRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodsec_pipeline_run_duration_seconds",
			Help:    "Duration of a full pipeline run in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		},
	)

	// PipelineLastSuccessTimestamp is the Unix time of the last successful run
	PipelineLastSuccessTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foodsec_pipeline_last_success_timestamp",
			Help: "Unix timestamp of the last successful pipeline run",
		},
	)
)

// Chart metrics track individual chart builds
var (
	// ChartBuildDuration measures the time to build and write one chart
	ChartBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodsec_chart_build_duration_seconds",
			Help:    "Duration of a chart build in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chart"},
	)

	// ChartRowsWritten is the number of rows in the last extract written per chart
	ChartRowsWritten = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "foodsec_chart_rows_written",
			Help: "Rows written in the last extract of each chart",
		},
		[]string{"chart"},
	)

	// ChartBuildErrors counts failed chart builds
	ChartBuildErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodsec_chart_build_errors_total",
			Help: "Total number of failed chart builds",
		},
		[]string{"chart"},
	)
)

// Source metrics track provider downloads
var (
	// SourceFetchTotal counts downloads by source and status
	SourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodsec_source_fetch_total",
			Help: "Total number of source downloads by status",
		},
		[]string{"source", "status"},
	)

	// SourceFetchDuration measures download time per source
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodsec_source_fetch_duration_seconds",
			Help:    "Duration of source downloads in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// CircuitState is the provider circuit state: 0 closed, 1 half-open, 2 open
	CircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "foodsec_source_circuit_state",
			Help: "Provider circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"circuit"},
	)

	// UnresolvedCountriesTotal counts distinct country names that could not be resolved
	UnresolvedCountriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodsec_unresolved_country_names_total",
			Help: "Distinct country names that could not be converted to ISO3, by source",
		},
		[]string{"source"},
	)
)
