package indicator

import "foodsecurity-charts/internal/domain/entity"

// FAOSTAT food-security items used by Undernourishment.
const (
	ItemUndernourishmentPct = "Prevalence of undernourishment (percent) (annual value)"
	ItemUndernourishedMil   = "Number of people undernourished (million) (annual value)"
)

// Undernourishment pairs prevalence and headcount for one area and year.
type Undernourishment struct {
	Area         string
	Year         string
	ValuePct     entity.NullFloat
	ValueTextPct string
	ValueMil     entity.NullFloat
	ValueTextMil string
}

// UndernourishmentFor inner-joins the prevalence and headcount items on year for area.
func UndernourishmentFor(records []entity.FAOSTATRecord, area string) []Undernourishment {
	mil := make(map[string]entity.FAOSTATRecord)
	for _, r := range records {
		if r.Area == area && r.Item == ItemUndernourishedMil {
			mil[r.Year] = r
		}
	}
	var out []Undernourishment
	for _, r := range records {
		if r.Area != area || r.Item != ItemUndernourishmentPct {
			continue
		}
		m, ok := mil[r.Year]
		if !ok {
			continue
		}
		out = append(out, Undernourishment{
			Area:         area,
			Year:         r.Year,
			ValuePct:     r.Value,
			ValueTextPct: r.ValueText,
			ValueMil:     m.Value,
			ValueTextMil: m.ValueText,
		})
	}
	return out
}
