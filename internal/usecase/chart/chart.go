// Package chart builds the chart tables of the food-security page.
//
// Each chart is a Definition: a name, whether it is part of the default run, default
// parameters and a Builder. Builders read through Sources, shape the data with the
// indicator package and return one or more named tables. The Service writes every table
// to {output}/{name}.csv.
package chart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foodsecurity-charts/internal/config"
	"foodsecurity-charts/internal/domain/table"
)

// ErrUnknownChart is returned for chart names that are not registered.
var ErrUnknownChart = errors.New("unknown chart")

// Options parameterizes a builder. Zero values mean "use the chart default".
type Options struct {
	Start       time.Time
	Top         int
	Commodities []string
	Indices     []string
}

// merge overlays catalogue overrides on defaults.
func (o Options) merge(entry config.ChartEntry) (Options, error) {
	if start, ok, err := entry.StartDate(); err != nil {
		return o, err
	} else if ok {
		o.Start = start
	}
	if entry.Top > 0 {
		o.Top = entry.Top
	}
	if len(entry.Commodities) > 0 {
		o.Commodities = entry.Commodities
	}
	if len(entry.Indices) > 0 {
		o.Indices = entry.Indices
	}
	return o, nil
}

// Builder produces the tables of one chart.
type Builder func(ctx context.Context, src *Sources, opts Options) ([]*table.Table, error)

// Definition describes a registered chart.
type Definition struct {
	Name        string
	Description string
	// Default charts run when no selection is given.
	Default  bool
	Defaults Options
	Build    Builder
}

// Registry holds chart definitions in run order.
type Registry struct {
	defs  []Definition
	index map[string]int
}

// NewRegistry creates a registry. Names must be unique.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(defs))}
	for _, d := range defs {
		if d.Name == "" || d.Build == nil {
			return nil, fmt.Errorf("chart definition requires a name and a builder")
		}
		if _, dup := r.index[d.Name]; dup {
			return nil, fmt.Errorf("duplicate chart %q", d.Name)
		}
		r.index[d.Name] = len(r.defs)
		r.defs = append(r.defs, d)
	}
	return r, nil
}

// DefaultRegistry returns every chart. The default set, in order, is the page update:
// fao_fpi_main, ipc_charts, stunting_top_countries_bar, food_share_chart,
// fao_fpi_scrolly, food_commodity_chart.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		Definition{Name: "fao_fpi_main", Description: "FAO Food Price Index since 2000", Default: true,
			Defaults: Options{Start: date(2000, 1, 1)}, Build: buildFoodPriceIndex("fao_fpi_main")},
		Definition{Name: "ipc_charts", Description: "Countries with most people per IPC/CH phase", Default: true,
			Defaults: Options{Top: 16}, Build: buildIPCPhases},
		Definition{Name: "stunting_top_countries_bar", Description: "Highest stunting prevalence plus Sub-Saharan Africa", Default: true,
			Defaults: Options{Top: 31}, Build: buildStuntingTop},
		Definition{Name: "food_share_chart", Description: "Share of expenditure on food vs GDP per capita", Default: true,
			Build: buildFoodShare},
		Definition{Name: "fao_fpi_scrolly", Description: "FAO Food Price Index since 2010", Default: true,
			Defaults: Options{Start: date(2010, 1, 1)}, Build: buildFoodPriceIndex("fao_fpi_scrolly")},
		Definition{Name: "food_commodity_chart", Description: "World Bank food commodity prices", Default: true,
			Defaults: Options{Start: date(2010, 1, 1), Commodities: DefaultCommodities}, Build: buildCommodityPrices},
		Definition{Name: "index_chart", Description: "World Bank commodity price indices",
			Defaults: Options{Start: date(2010, 1, 1), Indices: DefaultIndices}, Build: buildIndices},
		Definition{Name: "undernourishment_world", Description: "World prevalence and number of undernourished",
			Build: buildUndernourishmentWorld},
		Definition{Name: "stunting_map", Description: "Latest stunting prevalence with map shapes",
			Build: buildStuntingMap},
		Definition{Name: "ipc_analyses", Description: "Latest IPC/CH analysis per country",
			Build: buildIPCAnalyses},
		Definition{Name: "ipc_population", Description: "IPC classification population, previous and current year",
			Build: buildIPCPopulation},
		Definition{Name: "ipc_latest_country", Description: "Latest national IPC tracking tool figures",
			Build: buildIPCLatestCountry},
		Definition{Name: "stunting_dhs", Description: "Latest DHS survey value per country",
			Build: buildStuntingDHS},
		Definition{Name: "fertilizer_dependence", Description: "Fertilizer import dependence by nutrient",
			Build: buildFertilizerDependence},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the definition of name.
func (r *Registry) Lookup(name string) (Definition, error) {
	i, ok := r.index[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
	return r.defs[i], nil
}

// All returns every definition in run order.
func (r *Registry) All() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// DefaultNames returns the names of the default charts in run order.
func (r *Registry) DefaultNames() []string {
	var names []string
	for _, d := range r.defs {
		if d.Default {
			names = append(names, d.Name)
		}
	}
	return names
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
