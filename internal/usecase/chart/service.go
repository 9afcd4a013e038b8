package chart

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"foodsecurity-charts/internal/config"
	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/domain/table"
	"foodsecurity-charts/internal/observability/logging"
	"foodsecurity-charts/internal/observability/metrics"
	"foodsecurity-charts/internal/observability/tracing"
)

// TableWriter persists tables and the run log.
type TableWriter interface {
	Write(t *table.Table) (string, error)
	AppendRunLog(at time.Time) error
}

// Publisher copies written files elsewhere (object storage).
type Publisher interface {
	Publish(ctx context.Context, path string) error
}

// RunNotifier reports finished runs.
type RunNotifier interface {
	NotifyRun(ctx context.Context, report *entity.RunReport) error
}

// Service runs chart builders and writes their tables.
type Service struct {
	registry  *Registry
	sources   *Sources
	writer    TableWriter
	publisher Publisher
	notifier  RunNotifier
	catalog   *config.ChartCatalog
	now       func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithPublisher uploads every written file.
func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

// WithNotifier sends a report after every run.
func WithNotifier(n RunNotifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithCatalog applies the chart catalogue: its selection and per-chart overrides.
func WithCatalog(c *config.ChartCatalog) ServiceOption {
	return func(s *Service) { s.catalog = c }
}

// WithClock replaces time.Now for run timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a service.
func NewService(registry *Registry, sources *Sources, writer TableWriter, opts ...ServiceOption) *Service {
	s := &Service{
		registry: registry,
		sources:  sources,
		writer:   writer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the charts to build. An explicit selection wins over the catalogue,
// which wins over the registry defaults. Unknown names are an error.
func (s *Service) Resolve(names []string) ([]string, error) {
	switch {
	case len(names) > 0:
	case s.catalog != nil:
		names = s.catalog.Selected()
	default:
		names = s.registry.DefaultNames()
	}
	for _, name := range names {
		if _, err := s.registry.Lookup(name); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// Run builds the selected charts in order and stops at the first failure. The run log
// gets a new entry only when every chart was written.
func (s *Service) Run(ctx context.Context, names []string) (*entity.RunReport, error) {
	logger := logging.FromContext(ctx)
	report := &entity.RunReport{
		RunID:     logging.RunIDFromContext(ctx),
		StartedAt: s.now(),
	}

	ctx, span := tracing.GetTracer().Start(ctx, "pipeline.run")
	defer span.End()

	err := s.run(ctx, names, report)
	report.Duration = s.now().Sub(report.StartedAt)
	metrics.RecordRun(err == nil, report.Duration)

	if err != nil {
		report.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "chart update failed")
		logger.Error("chart update failed",
			slog.String("chart", report.FailedChart),
			slog.String("error", logging.SanitizeError(err)),
			slog.Duration("duration", report.Duration))
	} else {
		logger.Info("chart update completed",
			slog.Int("charts", len(report.Charts)),
			slog.Int("rows", report.Rows()),
			slog.Duration("duration", report.Duration))
	}

	if s.notifier != nil {
		if nerr := s.notifier.NotifyRun(ctx, report); nerr != nil {
			logger.Warn("run report not sent", slog.String("error", logging.SanitizeError(nerr)))
		}
	}
	return report, err
}

func (s *Service) run(ctx context.Context, names []string, report *entity.RunReport) error {
	selected, err := s.Resolve(names)
	if err != nil {
		return err
	}
	if s.sources.Now == nil {
		s.sources.Now = s.now
	}

	for _, name := range selected {
		result, err := s.buildChart(ctx, name)
		if err != nil {
			report.FailedChart = name
			return fmt.Errorf("chart %s: %w", name, err)
		}
		report.Charts = append(report.Charts, result)
	}

	if err := s.writer.AppendRunLog(s.now()); err != nil {
		return fmt.Errorf("update run log: %w", err)
	}
	return nil
}

func (s *Service) buildChart(ctx context.Context, name string) (entity.ChartResult, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "chart.build")
	defer span.End()
	span.SetAttributes(attribute.String("chart.name", name))

	logger := logging.FromContext(ctx).With(slog.String("chart", name))
	start := time.Now()

	tables, err := s.build(ctx, name)
	if err != nil {
		metrics.RecordChartError(name)
		span.RecordError(err)
		span.SetStatus(codes.Error, "build failed")
		return entity.ChartResult{}, err
	}

	result := entity.ChartResult{Name: name}
	for _, t := range tables {
		path, err := s.writer.Write(t)
		if err != nil {
			metrics.RecordChartError(name)
			span.RecordError(err)
			span.SetStatus(codes.Error, "write failed")
			return entity.ChartResult{}, err
		}
		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, path); err != nil {
				metrics.RecordChartError(name)
				span.RecordError(err)
				span.SetStatus(codes.Error, "publish failed")
				return entity.ChartResult{}, fmt.Errorf("publish %s: %w", t.Name, err)
			}
		}
		result.Tables = append(result.Tables, t.Name)
		result.Rows += t.Len()
		logger.Debug("table written", slog.String("path", path), slog.Int("rows", t.Len()))
	}

	result.Duration = time.Since(start)
	metrics.RecordChartBuild(name, result.Duration, result.Rows)
	span.SetAttributes(
		attribute.Int("chart.tables", len(result.Tables)),
		attribute.Int("chart.rows", result.Rows))
	logger.Info("chart built",
		slog.Int("tables", len(result.Tables)),
		slog.Int("rows", result.Rows),
		slog.Duration("duration", result.Duration))
	return result, nil
}

func (s *Service) build(ctx context.Context, name string) ([]*table.Table, error) {
	def, err := s.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	opts := def.Defaults
	if s.catalog != nil {
		if entry, ok := s.catalog.Entry(name); ok {
			if opts, err = opts.merge(entry); err != nil {
				return nil, err
			}
		}
	}
	return def.Build(ctx, s.sources, opts)
}
