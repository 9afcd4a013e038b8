package chart

import (
	"context"
	"sort"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/domain/table"
	"foodsecurity-charts/internal/usecase/indicator"
)

// RegionSubSaharanAfrica is the World Bank aggregate appended to the stunting bar chart.
const RegionSubSaharanAfrica = "SSF"

var observationColumns = []string{"iso_code", "country_name", "year", "value"}

func appendObservation(t *table.Table, o entity.Observation) error {
	return t.Append(o.ISOCode, o.CountryName, o.Year, o.Value)
}

// buildStuntingTop writes the top countries by latest stunting prevalence followed by the
// latest Sub-Saharan Africa value.
func buildStuntingTop(ctx context.Context, src *Sources, opts Options) ([]*table.Table, error) {
	obs, err := src.Stunting(ctx)
	if err != nil {
		return nil, err
	}

	current := indicator.Latest(obs)
	countries := indicator.KeepCountries(current, entity.Observation.Key, src.Countries)
	sort.SliceStable(countries, func(i, j int) bool {
		return countries[i].Value > countries[j].Value
	})
	if opts.Top > 0 && len(countries) > opts.Top {
		countries = countries[:opts.Top]
	}

	t := table.New("stunting_top_countries_bar", observationColumns...)
	for _, o := range countries {
		if err := appendObservation(t, o); err != nil {
			return nil, err
		}
	}
	for _, o := range current {
		if o.ISOCode != RegionSubSaharanAfrica {
			continue
		}
		if err := appendObservation(t, o); err != nil {
			return nil, err
		}
	}
	return []*table.Table{t}, nil
}

func buildStuntingMap(ctx context.Context, src *Sources, _ Options) ([]*table.Table, error) {
	obs, err := src.Stunting(ctx)
	if err != nil {
		return nil, err
	}
	shapes, err := src.Geometries.Geometries(ctx)
	if err != nil {
		return nil, err
	}

	t := table.New("stunting_map", append(append([]string{}, observationColumns...), "geometry")...)
	for _, r := range indicator.AddGeometries(indicator.Latest(obs), shapes) {
		if err := t.Append(r.ISOCode, r.CountryName, r.Year, r.Value, r.Geometry); err != nil {
			return nil, err
		}
	}
	return []*table.Table{t}, nil
}

func buildStuntingDHS(ctx context.Context, src *Sources, _ Options) ([]*table.Table, error) {
	values, err := src.Surveys.Values(ctx)
	if err != nil {
		return nil, err
	}

	t := table.New("stunting_dhs", "iso_code", "country", "survey", "survey_year", "indicator", "value")
	for _, v := range indicator.LatestSurveys(values) {
		if err := t.Append(v.ISOCode, v.Country, v.SurveyName, v.SurveyYear, v.Indicator, v.Value); err != nil {
			return nil, err
		}
	}
	return []*table.Table{t}, nil
}
