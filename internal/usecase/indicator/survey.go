package indicator

import (
	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/utils/latest"
)

// LatestSurveys keeps the most recent survey value per (country, indicator).
func LatestSurveys(values []entity.SurveyValue) []entity.SurveyValue {
	return latest.Select(values,
		func(v entity.SurveyValue) [2]string { return [2]string{v.ISOCode, v.Indicator} },
		func(v entity.SurveyValue) int { return v.SurveyYear })
}
