package entity

import (
	"strconv"
	"strings"
)

// FoodExpenditure is one USDA row on consumer food spending.
type FoodExpenditure struct {
	Country           string
	ISOCode           string
	FoodShare         NullFloat
	FoodExpPerCapita  NullFloat
	TotalExpPerCapita NullFloat
}

// FAOSTATRecord is one row of a FAOSTAT normalized bulk file.
// Year stays textual because some items are three-year averages ("2019-2021").
type FAOSTATRecord struct {
	AreaCode  string
	Area      string
	ItemCode  string
	Item      string
	Element   string
	Year      string
	Unit      string
	Value     NullFloat
	ValueText string
	Flag      string
}

// FAOSTATAggregateCodeMin is the first area code FAOSTAT assigns to regions and
// country groups ("World" is 5000, "Africa" 5100, "Least Developed Countries" 5801).
const FAOSTATAggregateCodeMin = 5000

// IsAggregate reports whether the record belongs to a FAOSTAT region or country group.
// Records without a numeric area code are treated as countries.
func (r FAOSTATRecord) IsAggregate() bool {
	code, err := strconv.Atoi(strings.TrimSpace(r.AreaCode))
	return err == nil && code >= FAOSTATAggregateCodeMin
}

// SurveyValue is one indicator value from a DHS survey.
type SurveyValue struct {
	Country    string
	ISOCode    string
	SurveyName string
	SurveyYear int
	Indicator  string
	Value      float64
}

// Geometry is a map shape keyed by ISO3 code.
type Geometry struct {
	ISOCode  string
	Geometry string
}
