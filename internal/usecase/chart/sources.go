package chart

import (
	"context"
	"time"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/infra/fao"
	"foodsecurity-charts/internal/infra/worldbank"
	"foodsecurity-charts/internal/repository"
)

// Countries is the country reference builders rely on.
type Countries interface {
	IsCountry(code string) bool
	Harmonize(source string, names []string) (codes []string, unmatched []string)
}

// Sources gives builders access to providers. Each dataset is fetched at most once per
// run; later builders reuse the first result, including its error.
type Sources struct {
	Indicators  repository.IndicatorRepository
	Commodities repository.CommodityRepository
	PriceIndex  repository.PriceIndexRepository
	Analyses    repository.AnalysisRepository
	Population  repository.PopulationRepository
	Tracking    repository.TrackingRepository
	Expenditure repository.ExpenditureRepository
	Surveys     repository.SurveyRepository
	Geometries  repository.GeometryRepository
	Countries   Countries

	// Now is the reference time for validity windows. Defaults to time.Now.
	Now func() time.Time

	stunting   cached[[]entity.Observation]
	countries  cached[[]entity.Country]
	fpi        cached[entity.Series]
	commodity  cached[*entity.CommodityData]
	foodSec    cached[[]entity.FAOSTATRecord]
	fertilizer cached[[]entity.FAOSTATRecord]
}

type cached[T any] struct {
	done  bool
	value T
	err   error
}

func (c *cached[T]) get(load func() (T, error)) (T, error) {
	if !c.done {
		c.value, c.err = load()
		c.done = true
	}
	return c.value, c.err
}

func (s *Sources) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Stunting returns the World Bank stunting prevalence series.
func (s *Sources) Stunting(ctx context.Context) ([]entity.Observation, error) {
	return s.stunting.get(func() ([]entity.Observation, error) {
		return s.Indicators.Indicator(ctx, worldbank.IndicatorStunting, worldbank.DatabaseWDI)
	})
}

// CountryMetadata returns World Bank country metadata.
func (s *Sources) CountryMetadata(ctx context.Context) ([]entity.Country, error) {
	return s.countries.get(func() ([]entity.Country, error) {
		return s.Indicators.Countries(ctx)
	})
}

// FoodPriceIndex returns the FAO Food Price Index.
func (s *Sources) FoodPriceIndex(ctx context.Context) (entity.Series, error) {
	return s.fpi.get(func() (entity.Series, error) {
		return s.PriceIndex.FoodPriceIndex(ctx)
	})
}

// CommodityData returns the World Bank monthly prices and indices.
func (s *Sources) CommodityData(ctx context.Context) (*entity.CommodityData, error) {
	return s.commodity.get(func() (*entity.CommodityData, error) {
		return s.Commodities.Read(ctx)
	})
}

// FoodSecurity returns the FAOSTAT food-security suite.
func (s *Sources) FoodSecurity(ctx context.Context) ([]entity.FAOSTATRecord, error) {
	return s.foodSec.get(func() ([]entity.FAOSTATRecord, error) {
		return s.PriceIndex.FAOSTAT(ctx, fao.DatasetFoodSecurity)
	})
}

// FertilizersByNutrient returns the FAOSTAT fertilizer dataset.
func (s *Sources) FertilizersByNutrient(ctx context.Context) ([]entity.FAOSTATRecord, error) {
	return s.fertilizer.get(func() ([]entity.FAOSTATRecord, error) {
		return s.PriceIndex.FAOSTAT(ctx, fao.DatasetFertilizersNutrient)
	})
}
