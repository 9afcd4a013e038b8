package config

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestConfigMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConfigMetrics("config_test", reg)

	m.RecordFallback("fetch_timeout")
	m.RecordFallback("fetch_timeout")
	m.RecordLoad(true)

	assert.Greater(t, testutil.ToFloat64(m.LoadTimestamp), float64(0))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("fetch_timeout")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FallbackActive))
	assert.Equal(t, 3, testutil.CollectAndCount(m.LoadTimestamp)+testutil.CollectAndCount(m.FallbacksTotal)+testutil.CollectAndCount(m.FallbackActive))

	m.RecordLoad(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.FallbackActive))
}

func TestConfigMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewConfigMetrics("pipeline", prometheus.NewRegistry())
		NewConfigMetrics("pipeline", prometheus.NewRegistry())
	})
}
