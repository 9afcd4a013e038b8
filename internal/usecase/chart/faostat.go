package chart

import (
	"context"

	"foodsecurity-charts/internal/domain/table"
	"foodsecurity-charts/internal/usecase/indicator"
)

func buildUndernourishmentWorld(ctx context.Context, src *Sources, _ Options) ([]*table.Table, error) {
	records, err := src.FoodSecurity(ctx)
	if err != nil {
		return nil, err
	}

	t := table.New("undernourishment_world",
		"area", "year", "value_pct", "value_text_pct", "value_mil", "value_text_mil")
	for _, r := range indicator.UndernourishmentFor(records, "World") {
		if err := t.Append(r.Area, r.Year, r.ValuePct, r.ValueTextPct, r.ValueMil, r.ValueTextMil); err != nil {
			return nil, err
		}
	}
	return []*table.Table{t}, nil
}

func buildFertilizerDependence(ctx context.Context, src *Sources, _ Options) ([]*table.Table, error) {
	records, err := src.FertilizersByNutrient(ctx)
	if err != nil {
		return nil, err
	}

	t := table.New("fertilizer_dependence",
		"iso_code", "area", "nutrient", "year", "import_quantity", "agricultural_use", "import_dependence")
	for _, d := range indicator.FertilizerDependence(records, src.Countries) {
		if err := t.Append(d.ISOCode, d.Area, d.Nutrient, d.Year, d.ImportQuantity, d.AgriculturalUse, d.Dependence); err != nil {
			return nil, err
		}
	}
	return []*table.Table{t}, nil
}
