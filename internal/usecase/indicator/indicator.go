// Package indicator holds the cleaning and joining steps shared by chart builders.
// Every function is pure: inputs are never modified and outputs keep input order.
package indicator

import (
	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/utils/latest"
)

// CountryChecker tells countries apart from regional aggregates and unresolved codes.
type CountryChecker interface {
	IsCountry(code string) bool
}

// KeepCountries drops rows whose code is not a country.
func KeepCountries[T any](rows []T, code func(T) string, countries CountryChecker) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if countries.IsCountry(code(r)) {
			out = append(out, r)
		}
	}
	return out
}

// Latest keeps the most recent observation per iso_code (ties kept).
func Latest(obs []entity.Observation) []entity.Observation {
	return latest.Select(obs, entity.Observation.Key, entity.Observation.Period)
}

// LatestByCode indexes the most recent observation per iso_code. When several rows
// share the latest year the first one wins.
func LatestByCode(obs []entity.Observation) map[string]entity.Observation {
	out := make(map[string]entity.Observation)
	for _, o := range Latest(obs) {
		if _, ok := out[o.ISOCode]; !ok {
			out[o.ISOCode] = o
		}
	}
	return out
}

// IncomeLevels indexes World Bank income groups by ISO3 code.
func IncomeLevels(countries []entity.Country) map[string]string {
	out := make(map[string]string, len(countries))
	for _, c := range countries {
		if c.ISO3 != "" && c.IncomeLevel != "" {
			out[c.ISO3] = c.IncomeLevel
		}
	}
	return out
}
