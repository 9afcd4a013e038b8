package ipc

import (
	"sort"
	"time"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/domain/table"
)

// Options selects which analyses Filter keeps.
type Options struct {
	// Latest keeps one analysis per country: the last by (year, to_date).
	Latest bool
	// OnlyValid drops analyses whose projection ended before the validity cut-off.
	OnlyValid bool
}

// ValidityCutoff returns the first day of now's month minus the validity window of the
// source (5 months for CH, 3 for IPC).
func ValidityCutoff(source entity.AnalysisSource, now time.Time) time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -source.ValidityMonths(), 0)
}

// Filter applies the latest and only-valid rules. The result is sorted by iso_code.
// Analyses ending exactly on the cut-off are valid.
func Filter(analyses []entity.IPCAnalysis, now time.Time, opts Options) []entity.IPCAnalysis {
	out := make([]entity.IPCAnalysis, len(analyses))
	copy(out, analyses)

	if opts.Latest {
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if a.ISOCode != b.ISOCode {
				return a.ISOCode < b.ISOCode
			}
			if a.Year != b.Year {
				return a.Year < b.Year
			}
			return a.ToDate.Before(b.ToDate)
		})

		kept := out[:0]
		for i, a := range out {
			if i+1 < len(out) && out[i+1].ISOCode == a.ISOCode {
				continue
			}
			kept = append(kept, a)
		}
		out = kept
	}

	if opts.OnlyValid {
		kept := out[:0]
		for _, a := range out {
			if !a.ToDate.Before(ValidityCutoff(a.Source, now)) {
				kept = append(kept, a)
			}
		}
		out = kept
	}

	return out
}

// AnalysesColumns is the header of the analyses table.
var AnalysesColumns = []string{
	"iso_code", "country_name",
	"phase_1", "phase_2", "phase_3", "phase_4", "phase_5", "phase_3plus",
	"from_date", "to_date", "source",
}

// Table renders analyses with AnalysesColumns.
func Table(name string, analyses []entity.IPCAnalysis) (*table.Table, error) {
	t := table.New(name, AnalysesColumns...)
	for _, a := range analyses {
		if err := t.Append(
			a.ISOCode, a.CountryName,
			a.Phase(1), a.Phase(2), a.Phase(3), a.Phase(4), a.Phase(5), a.Phase3Plus(),
			a.FromDate, a.ToDate, string(a.Source),
		); err != nil {
			return nil, err
		}
	}
	return t, nil
}
