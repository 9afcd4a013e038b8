package repository

import (
	"context"

	"foodsecurity-charts/internal/domain/entity"
)

// AnalysisRepository reads IPC and CH analyses.
type AnalysisRepository interface {
	// Analyses returns every published country analysis with resolved ISO3 codes.
	Analyses(ctx context.Context) ([]entity.IPCAnalysis, error)
}

// TrackingRepository reads the IPC population tracking tool.
type TrackingRepository interface {
	// LatestCountry returns the latest national analysis per country.
	LatestCountry(ctx context.Context) ([]entity.TrackingRow, error)
}

// PopulationRepository reads IPC classification population figures.
type PopulationRepository interface {
	// Population returns long-format records for the years [start, end]. No countries
	// means every country.
	Population(ctx context.Context, start, end int, countries []string) ([]entity.PopulationRecord, error)
}
