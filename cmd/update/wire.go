package main

import (
	"context"
	"fmt"
	"log/slog"

	"foodsecurity-charts/internal/config"
	"foodsecurity-charts/internal/infra/country"
	"foodsecurity-charts/internal/infra/dhs"
	"foodsecurity-charts/internal/infra/fao"
	"foodsecurity-charts/internal/infra/fetcher"
	"foodsecurity-charts/internal/infra/geometry"
	"foodsecurity-charts/internal/infra/ipc"
	"foodsecurity-charts/internal/infra/notifier"
	"foodsecurity-charts/internal/infra/output"
	"foodsecurity-charts/internal/infra/usda"
	"foodsecurity-charts/internal/infra/worldbank"
	"foodsecurity-charts/internal/observability/logging"
	"foodsecurity-charts/internal/resilience/circuitbreaker"
	"foodsecurity-charts/internal/resilience/retry"
	"foodsecurity-charts/internal/usecase/chart"
)

// setupService creates the chart service with all providers.
func setupService(ctx context.Context, cfg *config.PipelineConfig) (*chart.Service, error) {
	logger := logging.FromContext(ctx)

	sources := newSources(cfg)
	opts := []chart.ServiceOption{chart.WithNotifier(newNotifier(cfg.Slack))}

	if cfg.ChartCatalogPath != "" {
		catalog, err := config.LoadChartCatalog(cfg.ChartCatalogPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, chart.WithCatalog(catalog))
		logger.Info("chart catalogue loaded",
			slog.String("path", cfg.ChartCatalogPath),
			slog.Int("charts", len(catalog.Charts)))
	}

	if cfg.Publish.Enabled {
		publisher, err := output.NewPublisher(cfg.Publish)
		if err != nil {
			return nil, err
		}
		if err := publisher.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("prepare bucket %s: %w", cfg.Publish.Bucket, err)
		}
		opts = append(opts, chart.WithPublisher(publisher))
		logger.Info("publishing enabled",
			slog.String("endpoint", cfg.Publish.Endpoint),
			slog.String("bucket", cfg.Publish.Bucket))
	}

	return chart.NewService(chart.DefaultRegistry(), sources, output.NewWriter(cfg.OutputDir), opts...), nil
}

// newSources builds one downloader per provider so circuit breakers and metrics are
// tracked per provider.
func newSources(cfg *config.PipelineConfig) *chart.Sources {
	fetchCfg := fetcher.ConfigFrom(cfg.Fetch)
	download := func(source string) *fetcher.Downloader {
		return fetcher.New(source, fetchCfg)
	}
	paged := func(source string, rps float64) *fetcher.Downloader {
		c := fetchCfg
		c.RequestsPerSecond = rps
		return fetcher.New(source, c,
			fetcher.WithCircuitBreaker(circuitbreaker.PagedAPIConfig(source)),
			fetcher.WithRetry(retry.APIPageConfig(c.MaxAttempts)))
	}

	countries := country.Default()
	ipcClient := ipc.NewClient(cfg.Endpoints.IPCWeb, cfg.Endpoints.IPCAPI, cfg.IPCAPIKey, paged("ipc", 0), countries)

	return &chart.Sources{
		Indicators:  worldbank.NewClient(cfg.Endpoints.WorldBank, paged("worldbank", cfg.Fetch.WorldBankRPS)),
		Commodities: worldbank.NewCommodityReader(cfg.Endpoints.Commodity, download("worldbank-cmo")),
		PriceIndex:  fao.NewReader(cfg.Endpoints.FPIPage, cfg.Endpoints.FAOSTATBulk, download("fao")),
		Analyses:    ipcClient,
		Population:  ipcClient,
		Tracking:    ipc.NewTrackingReader(cfg.Endpoints.TrackingTool, download("ipc-tracking"), countries),
		Expenditure: usda.NewReader(cfg.RawDataDir, cfg.Endpoints.USDA, download("usda"), countries),
		Surveys:     dhs.NewReader(cfg.RawDataDir, download("dhs"), countries),
		Geometries:  geometry.NewReader(cfg.RawDataDir, download("geometry")),
		Countries:   countries,
	}
}

func newNotifier(cfg config.SlackConfig) notifier.Notifier {
	if !cfg.Enabled {
		return notifier.NewNoOpNotifier()
	}
	return notifier.NewSlackNotifier(notifier.SlackConfig{
		Enabled:    true,
		WebhookURL: cfg.WebhookURL,
		Timeout:    cfg.Timeout,
	})
}
