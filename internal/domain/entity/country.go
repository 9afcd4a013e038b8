package entity

// Country describes a country or regional aggregate as published by a provider.
type Country struct {
	ISO3        string
	ISO2        string
	Name        string
	Continent   string
	Region      string
	IncomeLevel string
	Aggregate   bool
}

// World Bank income groups.
const (
	IncomeLow         = "Low income"
	IncomeLowerMiddle = "Lower middle income"
	IncomeUpperMiddle = "Upper middle income"
	IncomeHigh        = "High income"
)

// Aggregated income groups used by the food-share chart.
const (
	IncomeLowAggregate  = "Low/lower middle income"
	IncomeHighAggregate = "High/higher middle income"
)

// AggregateIncomeLevel folds the four World Bank income groups into two.
// Other labels (e.g. "Not classified") pass through unchanged.
func AggregateIncomeLevel(level string) string {
	switch level {
	case IncomeLow, IncomeLowerMiddle:
		return IncomeLowAggregate
	case IncomeHigh, IncomeUpperMiddle:
		return IncomeHighAggregate
	default:
		return level
	}
}
