package entity

import "time"

// Observation is one yearly indicator value for a country or regional aggregate,
// the long format every World Bank indicator is melted into.
type Observation struct {
	ISOCode     string
	CountryName string
	Year        int
	Value       float64
}

// Key returns the grouping key used by latest-value selection.
func (o Observation) Key() string { return o.ISOCode }

// Period returns the time key used by latest-value selection.
func (o Observation) Period() int { return o.Year }

// SeriesPoint is one monthly row of a multi-column series such as the FAO Food Price
// Index or the World Bank commodity prices. Values is aligned with Series.Columns.
type SeriesPoint struct {
	Period time.Time
	Values []NullFloat
}

// Series is a monthly wide table keyed by period.
type Series struct {
	Columns []string
	Points  []SeriesPoint
}

// Since returns a copy of the series restricted to points on or after start.
func (s Series) Since(start time.Time) Series {
	out := Series{Columns: s.Columns}
	for _, p := range s.Points {
		if !p.Period.Before(start) {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

// Select returns a copy of the series with only the named columns, in the order
// given. Unknown names are returned in the second value.
func (s Series) Select(columns []string) (Series, []string) {
	index := make(map[string]int, len(s.Columns))
	for i, c := range s.Columns {
		index[c] = i
	}

	var picked []int
	var missing []string
	out := Series{}
	for _, c := range columns {
		i, ok := index[c]
		if !ok {
			missing = append(missing, c)
			continue
		}
		picked = append(picked, i)
		out.Columns = append(out.Columns, c)
	}

	out.Points = make([]SeriesPoint, 0, len(s.Points))
	for _, p := range s.Points {
		vals := make([]NullFloat, len(picked))
		for j, i := range picked {
			if i < len(p.Values) {
				vals[j] = p.Values[i]
			}
		}
		out.Points = append(out.Points, SeriesPoint{Period: p.Period, Values: vals})
	}
	return out, missing
}

// CommodityData holds the monthly commodity prices and price indices.
type CommodityData struct {
	Prices  Series
	Indices Series
}
