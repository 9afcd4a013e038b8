package entity

import "time"

// ChartResult records one chart build within a run.
type ChartResult struct {
	Name     string
	Tables   []string
	Rows     int
	Duration time.Duration
}

// RunReport summarizes one pipeline run.
// Err is set when a chart failed; FailedChart names it.
type RunReport struct {
	RunID       string
	StartedAt   time.Time
	Duration    time.Duration
	Charts      []ChartResult
	FailedChart string
	Err         error
}

// Succeeded reports whether every selected chart was written.
func (r *RunReport) Succeeded() bool {
	return r.Err == nil
}

// Rows returns the number of rows written across all charts.
func (r *RunReport) Rows() int {
	n := 0
	for _, c := range r.Charts {
		n += c.Rows
	}
	return n
}
