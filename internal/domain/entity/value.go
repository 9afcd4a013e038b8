package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// NullFloat is a float that may be missing.
// Providers mark gaps in different ways ("..", "", null, "n.a."); readers normalize all
// of them to an invalid NullFloat.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Some returns a valid NullFloat holding v.
func Some(v float64) NullFloat {
	return NullFloat{Float64: v, Valid: true}
}

// None returns a missing value.
func None() NullFloat {
	return NullFloat{}
}

// missingMarkers lists the textual gap markers seen across providers.
var missingMarkers = map[string]struct{}{
	"":     {},
	"..":   {},
	"...":  {},
	"-":    {},
	"n.a.": {},
	"na":   {},
	"nan":  {},
	"null": {},
}

// ParseNullFloat parses a provider cell into a NullFloat.
// Missing markers yield an invalid value and no error; anything else that is not a
// number yields an error.
func ParseNullFloat(s string) (NullFloat, error) {
	s = strings.TrimSpace(s)
	if _, ok := missingMarkers[strings.ToLower(s)]; ok {
		return None(), nil
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return None(), fmt.Errorf("%w: %q is not a number", ErrInvalidInput, s)
	}
	return Some(v), nil
}

// Add returns the sum of both values; the result is missing when either side is.
func (n NullFloat) Add(o NullFloat) NullFloat {
	if !n.Valid || !o.Valid {
		return None()
	}
	return Some(n.Float64 + o.Float64)
}

// String formats the value for CSV output; missing values render empty.
func (n NullFloat) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Float64, 'f', -1, 64)
}
