package entity

import (
	"fmt"
	"time"
)

// AnalysisSource identifies the classification framework of an analysis.
type AnalysisSource string

const (
	// SourceIPC is the Integrated Food Security Phase Classification.
	SourceIPC AnalysisSource = "IPC"
	// SourceCH is the Cadre Harmonisé used in West Africa and the Sahel.
	SourceCH AnalysisSource = "CH"
)

// ValidityMonths is how many months after its to-date an analysis stays current.
func (s AnalysisSource) ValidityMonths() int {
	if s == SourceCH {
		return 5
	}
	return 3
}

// PhaseCount is the number of IPC/CH severity phases.
const PhaseCount = 5

// IPCAnalysis is a country-level IPC or CH analysis with population per phase.
type IPCAnalysis struct {
	ISO2        string
	ISOCode     string
	CountryName string
	FromDate    time.Time
	ToDate      time.Time
	Year        int
	Source      AnalysisSource
	Phases      [PhaseCount]NullFloat
	Condition   string
}

// Phase returns the population in phase n (1-based).
func (a IPCAnalysis) Phase(n int) NullFloat {
	if n < 1 || n > PhaseCount {
		return None()
	}
	return a.Phases[n-1]
}

// Phase3Plus is the population in phase 3 or worse.
func (a IPCAnalysis) Phase3Plus() NullFloat {
	return a.Phases[2].Add(a.Phases[3]).Add(a.Phases[4])
}

// Validate checks the invariants readers rely on.
func (a IPCAnalysis) Validate() error {
	if a.Source != SourceIPC && a.Source != SourceCH {
		return &ValidationError{Field: "source", Message: fmt.Sprintf("unknown source %q", a.Source)}
	}
	if a.ToDate.IsZero() {
		return &ValidationError{Field: "to_date", Message: "to_date is required"}
	}
	if !a.FromDate.IsZero() && a.ToDate.Before(a.FromDate) {
		return &ValidationError{Field: "to_date", Message: "to_date is before from_date"}
	}
	return nil
}

// PopulationRecord is one long-format value of the IPC population endpoint.
type PopulationRecord struct {
	Country   string
	Indicator string
	Value     string
}

// TrackingRow is one row of the IPC population tracking tool export.
// Numbers holds the cleaned numeric columns (number_phase1_current, pct_phase3plus_proj, ...).
type TrackingRow struct {
	Country                 string
	ISOCode                 string
	Area                    string
	AnalysisName            string
	Date                    time.Time
	AnalysisPeriod          string
	AreaPhase               string
	PctOfPopulationAnalyzed NullFloat
	Numbers                 map[string]NullFloat
}
