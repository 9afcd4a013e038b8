package chart

import (
	"context"
	"errors"
	"sync"
	"time"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/domain/table"
	"foodsecurity-charts/internal/infra/fao"
	"foodsecurity-charts/internal/infra/worldbank"
)

/*────────────────────  インメモリスタブ  ────────────────────*/

var errProvider = errors.New("provider down")

type stubIndicators struct {
	series    map[string][]entity.Observation
	countries []entity.Country
	err       error
	calls     map[string]int
}

func (s *stubIndicators) Indicator(_ context.Context, code string, _ int) ([]entity.Observation, error) {
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[code]++
	return s.series[code], s.err
}

func (s *stubIndicators) Countries(context.Context) ([]entity.Country, error) {
	return s.countries, s.err
}

type stubCommodities struct {
	data *entity.CommodityData
	err  error
}

func (s *stubCommodities) Read(context.Context) (*entity.CommodityData, error) {
	return s.data, s.err
}

type stubPriceIndex struct {
	fpi      entity.Series
	datasets map[string][]entity.FAOSTATRecord
	err      error
	fpiCalls int
}

func (s *stubPriceIndex) FoodPriceIndex(context.Context) (entity.Series, error) {
	s.fpiCalls++
	return s.fpi, s.err
}

func (s *stubPriceIndex) FAOSTAT(_ context.Context, dataset string) ([]entity.FAOSTATRecord, error) {
	return s.datasets[dataset], s.err
}

type stubAnalyses struct {
	analyses []entity.IPCAnalysis
	err      error
}

func (s *stubAnalyses) Analyses(context.Context) ([]entity.IPCAnalysis, error) {
	return s.analyses, s.err
}

type stubPopulation struct {
	records []entity.PopulationRecord
	years   [2]int
	err     error
}

func (s *stubPopulation) Population(_ context.Context, start, end int, _ []string) ([]entity.PopulationRecord, error) {
	s.years = [2]int{start, end}
	return s.records, s.err
}

type stubTracking struct {
	rows []entity.TrackingRow
	err  error
}

func (s *stubTracking) LatestCountry(context.Context) ([]entity.TrackingRow, error) {
	return s.rows, s.err
}

type stubExpenditure struct {
	rows []entity.FoodExpenditure
	err  error
}

func (s *stubExpenditure) FoodExpenditure(context.Context) ([]entity.FoodExpenditure, error) {
	return s.rows, s.err
}

type stubSurveys struct {
	values []entity.SurveyValue
	err    error
}

func (s *stubSurveys) Values(context.Context) ([]entity.SurveyValue, error) {
	return s.values, s.err
}

type stubGeometries struct {
	shapes []entity.Geometry
	err    error
}

func (s *stubGeometries) Geometries(context.Context) ([]entity.Geometry, error) {
	return s.shapes, s.err
}

// memWriter keeps written tables in memory.
type memWriter struct {
	mu      sync.Mutex
	tables  map[string]*table.Table
	order   []string
	runLog  []time.Time
	failFor string
}

func newMemWriter() *memWriter {
	return &memWriter{tables: map[string]*table.Table{}}
}

func (w *memWriter) Write(t *table.Table) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t.Name == w.failFor {
		return "", errors.New("disk full")
	}
	w.tables[t.Name] = t
	w.order = append(w.order, t.Name)
	return "/out/" + t.Name + ".csv", nil
}

func (w *memWriter) AppendRunLog(at time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.runLog = append(w.runLog, at)
	return nil
}

type recordingPublisher struct {
	paths []string
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, path string) error {
	p.paths = append(p.paths, path)
	return p.err
}

type recordingNotifier struct {
	reports []*entity.RunReport
}

func (n *recordingNotifier) NotifyRun(_ context.Context, report *entity.RunReport) error {
	n.reports = append(n.reports, report)
	return errors.New("slack unavailable")
}

type stubCountries struct{}

func (stubCountries) IsCountry(code string) bool {
	switch code {
	case "SSF", "WLD", "not found", "":
		return false
	}
	return true
}

func (stubCountries) Harmonize(_ string, names []string) ([]string, []string) {
	known := map[string]string{"Kenya": "KEN", "Ethiopia": "ETH", "Nigeria": "NGA"}
	codes := make([]string, len(names))
	var unmatched []string
	for i, n := range names {
		if c, ok := known[n]; ok {
			codes[i] = c
			continue
		}
		codes[i] = "not found"
		unmatched = append(unmatched, n)
	}
	return codes, unmatched
}

/*────────────────────  フィクスチャ  ────────────────────*/

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

var testNow = time.Date(2024, time.June, 15, 8, 0, 0, 0, time.UTC)

func monthly(columns []string, from time.Time, n int) entity.Series {
	s := entity.Series{Columns: columns}
	for i := 0; i < n; i++ {
		vals := make([]entity.NullFloat, len(columns))
		for j := range vals {
			vals[j] = entity.Some(float64(100 + i + j))
		}
		s.Points = append(s.Points, entity.SeriesPoint{Period: from.AddDate(0, i, 0), Values: vals})
	}
	return s
}

func ipcAnalysis(iso, name string, to time.Time, src entity.AnalysisSource, phases ...float64) entity.IPCAnalysis {
	a := entity.IPCAnalysis{ISOCode: iso, CountryName: name, Year: to.Year(), FromDate: to.AddDate(0, -3, 0), ToDate: to, Source: src}
	for i := range a.Phases {
		if i < len(phases) && phases[i] >= 0 {
			a.Phases[i] = entity.Some(phases[i])
		}
	}
	return a
}

// testSources returns sources able to build every registered chart.
func testSources() (*Sources, *stubIndicators, *stubPriceIndex) {
	ind := &stubIndicators{
		series: map[string][]entity.Observation{
			worldbank.IndicatorStunting: {
				{ISOCode: "KEN", CountryName: "Kenya", Year: 2014, Value: 26},
				{ISOCode: "KEN", CountryName: "Kenya", Year: 2022, Value: 17.6},
				{ISOCode: "ETH", CountryName: "Ethiopia", Year: 2019, Value: 36.8},
				{ISOCode: "NER", CountryName: "Niger", Year: 2021, Value: 47.1},
				{ISOCode: "SSF", CountryName: "Sub-Saharan Africa", Year: 2020, Value: 32.4},
				{ISOCode: "SSF", CountryName: "Sub-Saharan Africa", Year: 2022, Value: 30.9},
				{ISOCode: "WLD", CountryName: "World", Year: 2022, Value: 22.3},
			},
			worldbank.IndicatorGDPPerCapita: {
				{ISOCode: "KEN", Year: 2022, Value: 2099},
				{ISOCode: "USA", Year: 2022, Value: 76330},
			},
		},
		countries: []entity.Country{
			{ISO3: "KEN", IncomeLevel: entity.IncomeLowerMiddle},
			{ISO3: "USA", IncomeLevel: entity.IncomeHigh},
		},
	}
	prices := &stubPriceIndex{
		fpi: monthly(fao.FPIColumns, month(1999, time.November), 4),
		datasets: map[string][]entity.FAOSTATRecord{
			fao.DatasetFoodSecurity: {
				{Area: "World", Item: "Prevalence of undernourishment (percent) (annual value)", Year: "2021", Value: entity.Some(9.2), ValueText: "9.2"},
				{Area: "World", Item: "Number of people undernourished (million) (annual value)", Year: "2021", Value: entity.Some(735), ValueText: "735"},
			},
			fao.DatasetFertilizersNutrient: {
				{Area: "Kenya", Item: "Nutrient nitrogen N (total)", Element: "Import quantity", Year: "2021", Value: entity.Some(50)},
				{Area: "Kenya", Item: "Nutrient nitrogen N (total)", Element: "Agricultural Use", Year: "2021", Value: entity.Some(200)},
			},
		},
	}
	src := &Sources{
		Indicators: ind,
		Commodities: &stubCommodities{data: &entity.CommodityData{
			Prices:  monthly([]string{"Crude oil, average", "Palm oil", "Sunflower oil", "Maize", "Wheat"}, month(2009, time.December), 3),
			Indices: monthly(worldbank.IndexNames, month(2010, time.January), 2),
		}},
		PriceIndex: prices,
		Analyses: &stubAnalyses{analyses: []entity.IPCAnalysis{
			ipcAnalysis("KEN", "Kenya", month(2024, time.May), entity.SourceIPC, 100, 200, 300, 40, 5),
			ipcAnalysis("ETH", "Ethiopia", month(2024, time.April), entity.SourceIPC, 100, 900, 800, 70, -1),
			ipcAnalysis("MLI", "Mali", month(2024, time.February), entity.SourceCH, 10, 20, 30, 4, 0),
			ipcAnalysis("HTI", "Haiti", month(2023, time.December), entity.SourceIPC, 10, 20, 3000, 4, 0),
		}},
		Population: &stubPopulation{records: []entity.PopulationRecord{
			{Country: "KE", Indicator: "population", Value: "53000000"},
			{Country: "KE", Indicator: "phase3_population_projected", Value: "2100000"},
		}},
		Tracking: &stubTracking{rows: []entity.TrackingRow{{
			Country: "Kenya", ISOCode: "KEN", AnalysisName: "Acute", Date: month(2023, time.July),
			Numbers: map[string]entity.NullFloat{"number_phase3plus_current": entity.Some(300)},
		}}},
		Expenditure: &stubExpenditure{rows: []entity.FoodExpenditure{
			{Country: "Kenya", ISOCode: "KEN", FoodShare: entity.Some(56.1)},
			{Country: "United States", ISOCode: "USA", FoodShare: entity.Some(6.7)},
		}},
		Surveys: &stubSurveys{values: []entity.SurveyValue{
			{Country: "Kenya", ISOCode: "KEN", SurveyName: "2014 DHS", SurveyYear: 2014, Indicator: "stunted", Value: 26},
			{Country: "Kenya", ISOCode: "KEN", SurveyName: "2022 DHS", SurveyYear: 2022, Indicator: "stunted", Value: 17.6},
		}},
		Geometries: &stubGeometries{shapes: []entity.Geometry{{ISOCode: "KEN", Geometry: "POLYGON ((1 1))"}}},
		Countries:  stubCountries{},
		Now:        func() time.Time { return testNow },
	}
	return src, ind, prices
}
