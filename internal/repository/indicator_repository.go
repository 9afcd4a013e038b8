package repository

import (
	"context"

	"foodsecurity-charts/internal/domain/entity"
)

// IndicatorRepository reads yearly country indicators and country metadata.
// Implemented by the World Bank API client.
type IndicatorRepository interface {
	// Indicator returns every non-null value of code from database db, in long format.
	Indicator(ctx context.Context, code string, db int) ([]entity.Observation, error)

	// Countries returns country metadata including income groups. Regional aggregates
	// are flagged with Aggregate.
	Countries(ctx context.Context) ([]entity.Country, error)
}

// CommodityRepository reads monthly commodity prices and price indices.
type CommodityRepository interface {
	Read(ctx context.Context) (*entity.CommodityData, error)
}

// PriceIndexRepository reads FAO datasets: the Food Price Index and FAOSTAT bulk files.
type PriceIndexRepository interface {
	FoodPriceIndex(ctx context.Context) (entity.Series, error)
	FAOSTAT(ctx context.Context, dataset string) ([]entity.FAOSTATRecord, error)
}
