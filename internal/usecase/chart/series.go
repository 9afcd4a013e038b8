package chart

import (
	"context"
	"fmt"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/domain/table"
)

// DefaultCommodities are the prices shown on the commodity chart.
var DefaultCommodities = []string{"Palm oil", "Sunflower oil", "Maize", "Wheat"}

// DefaultIndices are the indices shown on the index chart.
var DefaultIndices = []string{"Agriculture", "Food", "Oils & Meals", "Grains", "Other Food", "Fertilizers"}

// seriesTable renders a monthly series from start on. With popup the period is repeated
// in a trailing date_popup column for chart tooltips.
func seriesTable(name, periodColumn string, s entity.Series, popup bool) (*table.Table, error) {
	columns := append([]string{periodColumn}, s.Columns...)
	if popup {
		columns = append(columns, "date_popup")
	}
	t := table.New(name, columns...)
	for _, p := range s.Points {
		row := make([]any, 0, len(columns))
		row = append(row, p.Period)
		for _, v := range p.Values {
			row = append(row, v)
		}
		if popup {
			row = append(row, p.Period)
		}
		if err := t.Append(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func buildFoodPriceIndex(name string) Builder {
	return func(ctx context.Context, src *Sources, opts Options) ([]*table.Table, error) {
		fpi, err := src.FoodPriceIndex(ctx)
		if err != nil {
			return nil, err
		}
		t, err := seriesTable(name, "date", fpi.Since(opts.Start), true)
		if err != nil {
			return nil, err
		}
		return []*table.Table{t}, nil
	}
}

func buildCommodityPrices(ctx context.Context, src *Sources, opts Options) ([]*table.Table, error) {
	data, err := src.CommodityData(ctx)
	if err != nil {
		return nil, err
	}
	prices, missing := data.Prices.Select(opts.Commodities)
	if len(missing) > 0 {
		return nil, fmt.Errorf("commodities not in World Bank prices: %v", missing)
	}
	t, err := seriesTable("food_commodity_chart", "period", prices.Since(opts.Start), true)
	if err != nil {
		return nil, err
	}
	return []*table.Table{t}, nil
}

func buildIndices(ctx context.Context, src *Sources, opts Options) ([]*table.Table, error) {
	data, err := src.CommodityData(ctx)
	if err != nil {
		return nil, err
	}
	indices, missing := data.Indices.Select(opts.Indices)
	if len(missing) > 0 {
		return nil, fmt.Errorf("indices not in World Bank indices: %v", missing)
	}
	t, err := seriesTable("index_chart", "period", indices.Since(opts.Start), false)
	if err != nil {
		return nil, err
	}
	return []*table.Table{t}, nil
}
