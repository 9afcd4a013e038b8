package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRun(t *testing.T) {
	before := testutil.ToFloat64(PipelineRunsTotal.WithLabelValues("success"))
	failBefore := testutil.ToFloat64(PipelineRunsTotal.WithLabelValues("failure"))

	RecordRun(true, 2*time.Second)
	RecordRun(false, time.Second)

	assert.Equal(t, before+1, testutil.ToFloat64(PipelineRunsTotal.WithLabelValues("success")))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(PipelineRunsTotal.WithLabelValues("failure")))
	assert.Greater(t, testutil.ToFloat64(PipelineLastSuccessTimestamp), float64(0))
}

func TestRecordChartBuild(t *testing.T) {
	RecordChartBuild("ipc_phase_3", 150*time.Millisecond, 16)

	assert.Equal(t, float64(16), testutil.ToFloat64(ChartRowsWritten.WithLabelValues("ipc_phase_3")))

	RecordChartBuild("ipc_phase_3", 100*time.Millisecond, 12)
	assert.Equal(t, float64(12), testutil.ToFloat64(ChartRowsWritten.WithLabelValues("ipc_phase_3")))
}

func TestRecordChartError(t *testing.T) {
	before := testutil.ToFloat64(ChartBuildErrors.WithLabelValues("food_share_chart"))

	RecordChartError("food_share_chart")

	assert.Equal(t, before+1, testutil.ToFloat64(ChartBuildErrors.WithLabelValues("food_share_chart")))
}

func TestRecordSourceFetch(t *testing.T) {
	okBefore := testutil.ToFloat64(SourceFetchTotal.WithLabelValues("worldbank", "success"))
	failBefore := testutil.ToFloat64(SourceFetchTotal.WithLabelValues("worldbank", "failure"))

	RecordSourceFetch("worldbank", time.Second, nil)
	RecordSourceFetch("worldbank", time.Second, errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(SourceFetchTotal.WithLabelValues("worldbank", "success")))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(SourceFetchTotal.WithLabelValues("worldbank", "failure")))
}

func TestRecordUnresolvedCountry(t *testing.T) {
	before := testutil.ToFloat64(UnresolvedCountriesTotal.WithLabelValues("usda"))

	RecordUnresolvedCountry("usda")
	RecordUnresolvedCountry("usda")

	assert.Equal(t, before+2, testutil.ToFloat64(UnresolvedCountriesTotal.WithLabelValues("usda")))
}

func TestWriteTextfile(t *testing.T) {
	RecordChartBuild("fao_fpi_main", time.Second, 300)
	path := filepath.Join(t.TempDir(), "foodsec.prom")

	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `foodsec_chart_rows_written{chart="fao_fpi_main"} 300`))
}

func TestRecordCircuitState(t *testing.T) {
	for state, want := range map[string]float64{"closed": 0, "half-open": 1, "open": 2} {
		RecordCircuitState("source-fao", state)
		assert.Equal(t, want, testutil.ToFloat64(CircuitState.WithLabelValues("source-fao")), state)
	}
}
