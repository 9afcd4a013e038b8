package chart

import (
	"context"

	"foodsecurity-charts/internal/domain/table"
	"foodsecurity-charts/internal/infra/worldbank"
	"foodsecurity-charts/internal/usecase/indicator"
)

func buildFoodShare(ctx context.Context, src *Sources, _ Options) ([]*table.Table, error) {
	spending, err := src.Expenditure.FoodExpenditure(ctx)
	if err != nil {
		return nil, err
	}
	gdp, err := src.Indicators.Indicator(ctx, worldbank.IndicatorGDPPerCapita, worldbank.DatabaseWDI)
	if err != nil {
		return nil, err
	}
	countries, err := src.CountryMetadata(ctx)
	if err != nil {
		return nil, err
	}

	rows := indicator.NewFoodShares(spending)
	rows = indicator.AddLatestGDP(rows, gdp)
	rows = indicator.AddIncomeLevels(rows, countries)

	t := table.New("food_share_chart",
		"country", "iso_code", "share_of_food_expenditure", "food_expenditure_per_capita",
		"total_expenditure_per_capita", "gdp_per_capita", "income_level", "income_level_agg")
	for _, r := range rows {
		if err := t.Append(r.Country, r.ISOCode, r.FoodShare, r.FoodExpPerCapita,
			r.TotalExpPerCapita, r.GDPPerCapita, r.IncomeLevel, r.IncomeLevelAgg); err != nil {
			return nil, err
		}
	}
	return []*table.Table{t}, nil
}
