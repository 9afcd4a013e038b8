package repository

import (
	"context"

	"foodsecurity-charts/internal/domain/entity"
)

// ExpenditureRepository reads consumer food expenditure by country.
type ExpenditureRepository interface {
	FoodExpenditure(ctx context.Context) ([]entity.FoodExpenditure, error)
}

// SurveyRepository reads national survey indicator values.
type SurveyRepository interface {
	Values(ctx context.Context) ([]entity.SurveyValue, error)
}

// GeometryRepository reads map shapes keyed by ISO3 code.
type GeometryRepository interface {
	Geometries(ctx context.Context) ([]entity.Geometry, error)
}
