package indicator

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/infra/country"
	"foodsecurity-charts/internal/utils/latest"
)

// FAOSTAT elements used by FertilizerDependence.
const (
	ElementImportQuantity  = "Import quantity"
	ElementAgriculturalUse = "Agricultural Use"
)

// CountryHarmonizer converts provider names to ISO3 codes.
type CountryHarmonizer interface {
	Harmonize(source string, names []string) (codes []string, unmatched []string)
}

// Dependence is the share of a nutrient's agricultural use covered by imports.
type Dependence struct {
	ISOCode         string
	Area            string
	Nutrient        string
	Year            int
	ImportQuantity  float64
	AgriculturalUse float64
	Dependence      float64
}

type dependenceKey struct {
	area     string
	nutrient string
	year     int
}

// FertilizerDependence computes import quantity / agricultural use × 100 per country,
// nutrient and year, then keeps the latest year per (country, nutrient). Pairs without
// both values or with zero use are skipped, as are FAOSTAT aggregates and areas that do
// not resolve to a country.
//
// Values are paired within one FAOSTAT area. When several areas resolve to the same
// country ("China, mainland" and "China"), the first area seen keeps the code and the
// others are dropped.
func FertilizerDependence(records []entity.FAOSTATRecord, countries CountryHarmonizer) []Dependence {
	records = slices.DeleteFunc(slices.Clone(records), entity.FAOSTATRecord.IsAggregate)

	areas := make([]string, 0, len(records))
	seenArea := make(map[string]struct{})
	for _, r := range records {
		if _, ok := seenArea[r.Area]; ok {
			continue
		}
		seenArea[r.Area] = struct{}{}
		areas = append(areas, r.Area)
	}
	codes, _ := countries.Harmonize("faostat", areas)

	codeOf := make(map[string]string, len(areas))
	owner := make(map[string]string)
	for i, area := range areas {
		code := codes[i]
		if code == country.NotFound {
			continue
		}
		if first, ok := owner[code]; ok {
			slog.Warn("FAOSTAT area shares a country code with an earlier area, rows will be dropped",
				slog.String("area", area),
				slog.String("kept_area", first),
				slog.String("iso_code", code))
			continue
		}
		owner[code] = area
		codeOf[area] = code
	}

	type pair struct {
		imports entity.NullFloat
		use     entity.NullFloat
	}
	pairs := make(map[dependenceKey]*pair)
	var order []dependenceKey
	for _, r := range records {
		if _, ok := codeOf[r.Area]; !ok {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(r.Year))
		if err != nil {
			continue
		}
		k := dependenceKey{area: r.Area, nutrient: r.Item, year: year}
		p, ok := pairs[k]
		if !ok {
			p = &pair{}
			pairs[k] = p
			order = append(order, k)
		}
		switch r.Element {
		case ElementImportQuantity:
			p.imports = r.Value
		case ElementAgriculturalUse:
			p.use = r.Value
		}
	}

	var out []Dependence
	for _, k := range order {
		p := pairs[k]
		if !p.imports.Valid || !p.use.Valid || p.use.Float64 == 0 {
			continue
		}
		out = append(out, Dependence{
			ISOCode:         codeOf[k.area],
			Area:            k.area,
			Nutrient:        k.nutrient,
			Year:            k.year,
			ImportQuantity:  p.imports.Float64,
			AgriculturalUse: p.use.Float64,
			Dependence:      p.imports.Float64 / p.use.Float64 * 100,
		})
	}

	return latest.Select(out,
		func(d Dependence) [2]string { return [2]string{d.ISOCode, d.Nutrient} },
		func(d Dependence) int { return d.Year })
}
