package chart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/domain/table"
	"foodsecurity-charts/internal/infra/worldbank"
)

func build(t *testing.T, name string, src *Sources, override func(*Options)) []*table.Table {
	t.Helper()
	def, err := DefaultRegistry().Lookup(name)
	require.NoError(t, err)
	opts := def.Defaults
	if override != nil {
		override(&opts)
	}
	tables, err := def.Build(context.Background(), src, opts)
	require.NoError(t, err)
	return tables
}

func TestFoodPriceIndexCharts(t *testing.T) {
	src, _, prices := testSources()

	fpiMain := build(t, "fao_fpi_main", src, nil)
	scrolly := build(t, "fao_fpi_scrolly", src, nil)

	require.Len(t, fpiMain, 1)
	assert.Equal(t, "fao_fpi_main", fpiMain[0].Name)
	assert.Equal(t, []string{"date", "Food Price Index", "Meat", "Dairy", "Cereals", "Oils", "Sugar", "date_popup"}, fpiMain[0].Columns)
	assert.Equal(t, [][]string{
		{"2000-01-01", "102", "103", "104", "105", "106", "107", "2000-01-01"},
		{"2000-02-01", "103", "104", "105", "106", "107", "108", "2000-02-01"},
	}, fpiMain[0].Rows())

	assert.Equal(t, 0, scrolly[0].Len(), "no point on or after 2010-01-01")
	assert.Equal(t, 1, prices.fpiCalls, "the index is downloaded once per run")
}

func TestIPCCharts(t *testing.T) {
	src, _, _ := testSources()

	tables := build(t, "ipc_charts", src, nil)

	names := make([]string, len(tables))
	byName := map[string]*table.Table{}
	for i, tbl := range tables {
		names[i] = tbl.Name
		byName[tbl.Name] = tbl
	}
	assert.Equal(t, []string{"ipc_phase_2", "ipc_phase_3", "ipc_phase_4", "ipc_phase_5", "ipc_phase_3plus"}, names)

	phase3 := byName["ipc_phase_3"]
	assert.Equal(t, []string{"country", "phase_3", "period_start", "period_end", "source"}, phase3.Columns)
	want := [][]string{
		{"Ethiopia", "800", "2024-01-01", "2024-04-01", "IPC"},
		{"Kenya", "300", "2024-02-01", "2024-05-01", "IPC"},
		{"Mali", "30", "2023-11-01", "2024-02-01", "CH"},
	}
	if diff := cmp.Diff(want, phase3.Rows()); diff != "" {
		t.Errorf("ipc_phase_3 mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{"Kenya", "Mali"}, byName["ipc_phase_5"].Column("country"), "missing phase 5 dropped")
	assert.Equal(t, []string{"345", "34"}, byName["ipc_phase_3plus"].Column("phase_3plus"))
}

func TestIPCCharts_Top(t *testing.T) {
	src, _, _ := testSources()

	tables := build(t, "ipc_charts", src, func(o *Options) { o.Top = 1 })

	assert.Equal(t, []string{"Ethiopia"}, tables[1].Column("country"))
	// missing values sort last, so the cut keeps Kenya rather than Ethiopia
	assert.Equal(t, []string{"Kenya"}, tables[4].Column("country"))
}

func TestStuntingTopCountriesBar(t *testing.T) {
	src, _, _ := testSources()

	tables := build(t, "stunting_top_countries_bar", src, nil)

	require.Len(t, tables, 1)
	assert.Equal(t, [][]string{
		{"NER", "Niger", "2021", "47.1"},
		{"ETH", "Ethiopia", "2019", "36.8"},
		{"KEN", "Kenya", "2022", "17.6"},
		{"SSF", "Sub-Saharan Africa", "2022", "30.9"},
	}, tables[0].Rows())

	top := build(t, "stunting_top_countries_bar", src, func(o *Options) { o.Top = 2 })
	assert.Equal(t, []string{"NER", "ETH", "SSF"}, top[0].Column("iso_code"))
}

func TestStuntingTopCountriesBar_DefaultCutOff(t *testing.T) {
	var obs []entity.Observation
	for i := range 40 {
		obs = append(obs, entity.Observation{
			ISOCode: fmt.Sprintf("C%02d", i), CountryName: fmt.Sprintf("Country %d", i), Year: 2022, Value: float64(60 - i),
		})
	}
	obs = append(obs, entity.Observation{ISOCode: "SSF", CountryName: "Sub-Saharan Africa", Year: 2022, Value: 30.9})
	src := &Sources{
		Indicators: &stubIndicators{series: map[string][]entity.Observation{worldbank.IndicatorStunting: obs}},
		Countries:  stubCountries{},
	}

	codes := build(t, "stunting_top_countries_bar", src, nil)[0].Column("iso_code")

	require.Len(t, codes, 32)
	assert.Equal(t, "C00", codes[0])
	assert.Equal(t, "C30", codes[30])
	assert.Equal(t, "SSF", codes[31])
}

func TestFoodShareChart(t *testing.T) {
	src, _, _ := testSources()

	tables := build(t, "food_share_chart", src, nil)

	tbl := tables[0]
	assert.Equal(t, []string{"2099", "76330"}, tbl.Column("gdp_per_capita"))
	assert.Equal(t, []string{"Lower middle income", "High income"}, tbl.Column("income_level"))
	assert.Equal(t, []string{"Low/lower middle income", "High/higher middle income"}, tbl.Column("income_level_agg"))
}

func TestCommodityCharts(t *testing.T) {
	src, _, _ := testSources()

	prices := build(t, "food_commodity_chart", src, nil)[0]
	assert.Equal(t, []string{"period", "Palm oil", "Sunflower oil", "Maize", "Wheat", "date_popup"}, prices.Columns)
	assert.Equal(t, []string{"2010-01-01", "2010-02-01"}, prices.Column("period"))
	assert.Equal(t, prices.Column("period"), prices.Column("date_popup"))

	indices := build(t, "index_chart", src, nil)[0]
	assert.Equal(t, []string{"period", "Agriculture", "Food", "Oils & Meals", "Grains", "Other Food", "Fertilizers"}, indices.Columns)
	assert.Equal(t, 2, indices.Len())
}

func TestCommodityChart_UnknownCommodity(t *testing.T) {
	src, _, _ := testSources()
	def, err := DefaultRegistry().Lookup("food_commodity_chart")
	require.NoError(t, err)
	opts := def.Defaults
	opts.Commodities = []string{"Palm oil", "Cocoa"}

	_, err = def.Build(context.Background(), src, opts)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cocoa")
}

func TestOptionalCharts(t *testing.T) {
	src, _, _ := testSources()

	under := build(t, "undernourishment_world", src, nil)[0]
	assert.Equal(t, [][]string{{"World", "2021", "9.2", "9.2", "735", "735"}}, under.Rows())

	stuntingMap := build(t, "stunting_map", src, nil)[0]
	assert.Equal(t, "POLYGON ((1 1))", stuntingMap.Rows()[0][4])
	assert.Equal(t, 5, stuntingMap.Len(), "one latest row per code, aggregates included")

	latest := build(t, "ipc_latest_country", src, nil)[0]
	assert.Equal(t, []string{"300"}, latest.Column("number_phase3plus_current"))
	assert.Equal(t, []string{"2023-07-01"}, latest.Column("date"))

	dhs := build(t, "stunting_dhs", src, nil)[0]
	assert.Equal(t, [][]string{{"KEN", "Kenya", "2022 DHS", "2022", "stunted", "17.6"}}, dhs.Rows())

	fert := build(t, "fertilizer_dependence", src, nil)[0]
	assert.Equal(t, []string{"25"}, fert.Column("import_dependence"))
}

func TestIPCAnalysesAndPopulation(t *testing.T) {
	src, _, _ := testSources()

	analyses := build(t, "ipc_analyses", src, nil)[0]
	assert.Equal(t, []string{"ETH", "HTI", "KEN", "MLI"}, analyses.Column("iso_code"), "expired analyses kept")
	assert.Equal(t, []string{"", "3004", "345", "34"}, analyses.Column("phase_3plus"))

	population := build(t, "ipc_population", src, nil)[0]
	assert.Equal(t, []string{"country", "indicator", "value"}, population.Columns)
	assert.Equal(t, 2, population.Len())
	assert.Equal(t, [2]int{2023, 2024}, src.Population.(*stubPopulation).years)
}

func TestSources_CachesErrors(t *testing.T) {
	src, ind, _ := testSources()
	ind.err = errProvider

	_, err1 := src.Stunting(context.Background())
	_, err2 := src.Stunting(context.Background())

	assert.ErrorIs(t, err1, errProvider)
	assert.ErrorIs(t, err2, errProvider)
	assert.Equal(t, 1, ind.calls[worldbank.IndicatorStunting])
}
