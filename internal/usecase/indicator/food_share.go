package indicator

import "foodsecurity-charts/internal/domain/entity"

// FoodShare is a food-expenditure row enriched for the food share chart.
type FoodShare struct {
	entity.FoodExpenditure
	GDPPerCapita   entity.NullFloat
	GDPYear        int
	IncomeLevel    string
	IncomeLevelAgg string
}

// NewFoodShares wraps expenditure rows.
func NewFoodShares(rows []entity.FoodExpenditure) []FoodShare {
	out := make([]FoodShare, len(rows))
	for i, r := range rows {
		out[i] = FoodShare{FoodExpenditure: r}
	}
	return out
}

// AddLatestGDP joins the latest GDP value per country. Countries without GDP keep a
// missing value.
func AddLatestGDP(rows []FoodShare, gdp []entity.Observation) []FoodShare {
	byCode := LatestByCode(gdp)
	out := make([]FoodShare, len(rows))
	for i, r := range rows {
		if o, ok := byCode[r.ISOCode]; ok {
			r.GDPPerCapita = entity.Some(o.Value)
			r.GDPYear = o.Year
		}
		out[i] = r
	}
	return out
}

// AddIncomeLevels joins the income group and its two-level aggregate.
func AddIncomeLevels(rows []FoodShare, countries []entity.Country) []FoodShare {
	levels := IncomeLevels(countries)
	out := make([]FoodShare, len(rows))
	for i, r := range rows {
		r.IncomeLevel = levels[r.ISOCode]
		r.IncomeLevelAgg = entity.AggregateIncomeLevel(r.IncomeLevel)
		out[i] = r
	}
	return out
}
