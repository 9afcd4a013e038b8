package chart

import (
	"context"
	"sort"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/domain/table"
	"foodsecurity-charts/internal/infra/ipc"
)

// ipcPhase is one per-phase chart: its column and how to read the value.
type ipcPhase struct {
	column string
	value  func(entity.IPCAnalysis) entity.NullFloat
}

var ipcPhases = []ipcPhase{
	{"phase_2", func(a entity.IPCAnalysis) entity.NullFloat { return a.Phase(2) }},
	{"phase_3", func(a entity.IPCAnalysis) entity.NullFloat { return a.Phase(3) }},
	{"phase_4", func(a entity.IPCAnalysis) entity.NullFloat { return a.Phase(4) }},
	{"phase_5", func(a entity.IPCAnalysis) entity.NullFloat { return a.Phase(5) }},
	{"phase_3plus", entity.IPCAnalysis.Phase3Plus},
}

// buildIPCPhases writes ipc_phase_2 .. ipc_phase_5 and ipc_phase_3plus from the latest
// valid analysis per country.
func buildIPCPhases(ctx context.Context, src *Sources, opts Options) ([]*table.Table, error) {
	analyses, err := src.Analyses.Analyses(ctx)
	if err != nil {
		return nil, err
	}
	current := ipc.Filter(analyses, src.now(), ipc.Options{Latest: true, OnlyValid: true})

	tables := make([]*table.Table, 0, len(ipcPhases))
	for _, phase := range ipcPhases {
		t, err := phaseTable(current, phase, opts.Top)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// phaseTable sorts by the phase population descending (missing last), takes the first
// top rows and then drops those with a missing value.
func phaseTable(analyses []entity.IPCAnalysis, phase ipcPhase, top int) (*table.Table, error) {
	sorted := make([]entity.IPCAnalysis, len(analyses))
	copy(sorted, analyses)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := phase.value(sorted[i]), phase.value(sorted[j])
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.Float64 > b.Float64
	})
	if top > 0 && len(sorted) > top {
		sorted = sorted[:top]
	}

	t := table.New("ipc_"+phase.column, "country", phase.column, "period_start", "period_end", "source")
	for _, a := range sorted {
		v := phase.value(a)
		if !v.Valid {
			continue
		}
		if err := t.Append(a.CountryName, v, a.FromDate, a.ToDate, string(a.Source)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// buildIPCAnalyses writes the latest analysis per country, expired ones included.
func buildIPCAnalyses(ctx context.Context, src *Sources, _ Options) ([]*table.Table, error) {
	analyses, err := src.Analyses.Analyses(ctx)
	if err != nil {
		return nil, err
	}
	t, err := ipc.Table("ipc_analyses", ipc.Filter(analyses, src.now(), ipc.Options{Latest: true}))
	if err != nil {
		return nil, err
	}
	return []*table.Table{t}, nil
}

// buildIPCPopulation writes classification populations for the previous and current year.
func buildIPCPopulation(ctx context.Context, src *Sources, _ Options) ([]*table.Table, error) {
	year := src.now().Year()
	records, err := src.Population.Population(ctx, year-1, year, nil)
	if err != nil {
		return nil, err
	}
	t := table.New("ipc_population", "country", "indicator", "value")
	for _, r := range records {
		if err := t.Append(r.Country, r.Indicator, r.Value); err != nil {
			return nil, err
		}
	}
	return []*table.Table{t}, nil
}

// trackingColumns is the header of ipc_latest_country.
var trackingColumns = []string{
	"country", "iso_code", "analysis_name", "date", "analysis_period", "area_phase",
	"pct_of_population_analyzed", "area_population_current",
}

func buildIPCLatestCountry(ctx context.Context, src *Sources, _ Options) ([]*table.Table, error) {
	rows, err := src.Tracking.LatestCountry(ctx)
	if err != nil {
		return nil, err
	}
	columns := append(append([]string{}, trackingColumns...), ipc.TrackingNumberColumns...)
	t := table.New("ipc_latest_country", columns...)
	for _, r := range rows {
		values := []any{
			r.Country, r.ISOCode, r.AnalysisName, r.Date, r.AnalysisPeriod, r.AreaPhase,
			r.PctOfPopulationAnalyzed, r.Numbers["area_population_current"],
		}
		for _, col := range ipc.TrackingNumberColumns {
			values = append(values, r.Numbers[col])
		}
		if err := t.Append(values...); err != nil {
			return nil, err
		}
	}
	return []*table.Table{t}, nil
}
