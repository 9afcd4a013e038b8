// Package config holds the settings of the update pipeline: environment-driven runtime
// settings and the optional YAML chart catalogue.
package config

import (
	"fmt"
	"log/slog"
	"time"

	pkgconfig "foodsecurity-charts/internal/pkg/config"
)

// Default provider endpoints.
const (
	DefaultWorldBankURL    = "https://api.worldbank.org/v2/"
	DefaultCommodityURL    = "https://thedocs.worldbank.org/en/doc/5d903e848db1d1b83e0ec8f744e55570-0350012021/related/CMO-Historical-Data-Monthly.xlsx"
	DefaultIPCWebURL       = "https://fsr2av3qi2.execute-api.us-east-1.amazonaws.com/ch/"
	DefaultIPCAPIURL       = "https://api.ipcinfo.org/"
	DefaultTrackingToolURL = "https://map.ipcinfo.org/api/public/population-tracking-tool/data/2017,2022/?export=true&condition=A"
	DefaultFPIPageURL      = "https://www.fao.org/worldfoodsituation/foodpricesindex/en/"
	DefaultFAOSTATBulkURL  = "https://fenixservices.fao.org/faostat/static/bulkdownloads/"
	DefaultUSDAURL         = "https://www.ers.usda.gov/media/e2pbwgyg/2015-2020-food-spending_update-july-2021.xlsx"
)

// PipelineConfig holds everything one update run needs from its environment.
type PipelineConfig struct {
	// OutputDir receives one CSV per chart and updates.csv. Default: "output"
	OutputDir string

	// RawDataDir holds manually staged inputs (USDA xlsx, DHS export, geometries).
	// Default: "raw_data"
	RawDataDir string

	// ChartCatalogPath is an optional YAML chart catalogue. Empty means built-in defaults.
	ChartCatalogPath string

	// MetricsTextfile, when set, receives the Prometheus metrics at the end of the run.
	MetricsTextfile string

	Fetch     FetchConfig
	Endpoints EndpointConfig

	// IPCAPIKey authenticates against the IPC/CH APIs.
	IPCAPIKey string

	Publish PublishConfig
	Slack   SlackConfig
}

// FetchConfig configures provider downloads.
type FetchConfig struct {
	// Timeout per HTTP request. Default: 60s
	Timeout time.Duration
	// MaxAttempts including the first request. Default: 3
	MaxAttempts int
	// MaxBodySize caps a downloaded payload in bytes. Default: 64 MiB
	MaxBodySize int64
	// WorldBankRPS throttles paged World Bank API calls. Default: 5
	WorldBankRPS float64
	// UserAgent sent with every request.
	UserAgent string
}

// EndpointConfig holds provider base URLs, overridable for mirrors and tests.
type EndpointConfig struct {
	WorldBank    string
	Commodity    string
	IPCWeb       string
	IPCAPI       string
	TrackingTool string
	FPIPage      string
	FAOSTATBulk  string
	USDA         string
}

// PublishConfig configures the optional upload of chart CSVs to S3-compatible storage.
type PublishConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// SlackConfig configures the optional run report.
type SlackConfig struct {
	Enabled    bool
	WebhookURL string
	Timeout    time.Duration
}

// DefaultPipelineConfig returns the configuration used when no variable is set.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		OutputDir:  "output",
		RawDataDir: "raw_data",
		Fetch: FetchConfig{
			Timeout:      60 * time.Second,
			MaxAttempts:  3,
			MaxBodySize:  64 << 20,
			WorldBankRPS: 5,
			UserAgent:    "foodsecurity-charts/1.0",
		},
		Endpoints: EndpointConfig{
			WorldBank:    DefaultWorldBankURL,
			Commodity:    DefaultCommodityURL,
			IPCWeb:       DefaultIPCWebURL,
			IPCAPI:       DefaultIPCAPIURL,
			TrackingTool: DefaultTrackingToolURL,
			FPIPage:      DefaultFPIPageURL,
			FAOSTATBulk:  DefaultFAOSTATBulkURL,
			USDA:         DefaultUSDAURL,
		},
		Publish: PublishConfig{
			Bucket: "charts",
			UseSSL: true,
		},
		Slack: SlackConfig{
			Timeout: 10 * time.Second,
		},
	}
}

// LoadPipelineConfig loads the pipeline configuration from environment variables.
//
// Invalid values never fail the load: the default is kept, a warning is logged and the
// fallback is counted in metrics (metrics may be nil). Missing credentials for enabled
// optional features are reported by Validate instead.
//
// Environment variables:
//   - OUTPUT_DIR, RAW_DATA_DIR, CHART_CONFIG, METRICS_TEXTFILE
//   - FETCH_TIMEOUT (1s-30m), FETCH_MAX_ATTEMPTS (1-10), FETCH_MAX_BODY_SIZE (bytes)
//   - WB_REQUESTS_PER_SECOND, FETCH_USER_AGENT
//   - WB_API_URL, WB_COMMODITY_URL, IPC_WEB_URL, IPC_API_URL, IPC_TRACKING_URL,
//     FAO_FPI_URL, FAOSTAT_BULK_URL, USDA_FOOD_EXPENDITURE_URL
//   - IPC_API_KEY (IPC_WEB_API accepted as fallback name)
//   - PUBLISH_ENABLED, PUBLISH_ENDPOINT, PUBLISH_ACCESS_KEY, PUBLISH_SECRET_KEY,
//     PUBLISH_BUCKET, PUBLISH_PREFIX, PUBLISH_USE_SSL
//   - SLACK_ENABLED, SLACK_WEBHOOK_URL, SLACK_TIMEOUT
func LoadPipelineConfig(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) *PipelineConfig {
	cfg := DefaultPipelineConfig()
	l := &loader{logger: logger, metrics: metrics}

	cfg.OutputDir = pkgconfig.LoadEnvString("OUTPUT_DIR", cfg.OutputDir)
	cfg.RawDataDir = pkgconfig.LoadEnvString("RAW_DATA_DIR", cfg.RawDataDir)
	cfg.ChartCatalogPath = pkgconfig.LoadEnvString("CHART_CONFIG", "")
	cfg.MetricsTextfile = pkgconfig.LoadEnvString("METRICS_TEXTFILE", "")

	cfg.Fetch.Timeout = l.apply("fetch_timeout", pkgconfig.LoadEnvDuration("FETCH_TIMEOUT", cfg.Fetch.Timeout, func(d time.Duration) error {
		return pkgconfig.ValidateDuration(d, time.Second, 30*time.Minute)
	})).(time.Duration)
	cfg.Fetch.MaxAttempts = l.apply("fetch_max_attempts", pkgconfig.LoadEnvInt("FETCH_MAX_ATTEMPTS", cfg.Fetch.MaxAttempts, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 10)
	})).(int)
	cfg.Fetch.MaxBodySize = l.apply("fetch_max_body_size",
		pkgconfig.LoadEnvInt64("FETCH_MAX_BODY_SIZE", cfg.Fetch.MaxBodySize, pkgconfig.ValidatePositiveInt64)).(int64)
	cfg.Fetch.WorldBankRPS = l.apply("wb_requests_per_second",
		pkgconfig.LoadEnvFloat("WB_REQUESTS_PER_SECOND", cfg.Fetch.WorldBankRPS, pkgconfig.ValidatePositiveFloat)).(float64)
	cfg.Fetch.UserAgent = pkgconfig.LoadEnvString("FETCH_USER_AGENT", cfg.Fetch.UserAgent)

	endpoints := []struct {
		field  string
		envKey string
		target *string
	}{
		{"wb_api_url", "WB_API_URL", &cfg.Endpoints.WorldBank},
		{"wb_commodity_url", "WB_COMMODITY_URL", &cfg.Endpoints.Commodity},
		{"ipc_web_url", "IPC_WEB_URL", &cfg.Endpoints.IPCWeb},
		{"ipc_api_url", "IPC_API_URL", &cfg.Endpoints.IPCAPI},
		{"ipc_tracking_url", "IPC_TRACKING_URL", &cfg.Endpoints.TrackingTool},
		{"fao_fpi_url", "FAO_FPI_URL", &cfg.Endpoints.FPIPage},
		{"faostat_bulk_url", "FAOSTAT_BULK_URL", &cfg.Endpoints.FAOSTATBulk},
		{"usda_url", "USDA_FOOD_EXPENDITURE_URL", &cfg.Endpoints.USDA},
	}
	for _, e := range endpoints {
		*e.target = l.apply(e.field, pkgconfig.LoadEnvWithFallback(e.envKey, *e.target, pkgconfig.ValidateHTTPURL)).(string)
	}

	cfg.IPCAPIKey = pkgconfig.LoadEnvString("IPC_API_KEY", pkgconfig.LoadEnvString("IPC_WEB_API", ""))

	cfg.Publish.Enabled = l.apply("publish_enabled", pkgconfig.LoadEnvBool("PUBLISH_ENABLED", cfg.Publish.Enabled)).(bool)
	cfg.Publish.Endpoint = pkgconfig.LoadEnvString("PUBLISH_ENDPOINT", cfg.Publish.Endpoint)
	cfg.Publish.AccessKey = pkgconfig.LoadEnvString("PUBLISH_ACCESS_KEY", "")
	cfg.Publish.SecretKey = pkgconfig.LoadEnvString("PUBLISH_SECRET_KEY", "")
	cfg.Publish.Bucket = pkgconfig.LoadEnvString("PUBLISH_BUCKET", cfg.Publish.Bucket)
	cfg.Publish.Prefix = pkgconfig.LoadEnvString("PUBLISH_PREFIX", cfg.Publish.Prefix)
	cfg.Publish.UseSSL = l.apply("publish_use_ssl", pkgconfig.LoadEnvBool("PUBLISH_USE_SSL", cfg.Publish.UseSSL)).(bool)

	cfg.Slack.Enabled = l.apply("slack_enabled", pkgconfig.LoadEnvBool("SLACK_ENABLED", cfg.Slack.Enabled)).(bool)
	cfg.Slack.WebhookURL = pkgconfig.LoadEnvString("SLACK_WEBHOOK_URL", "")
	cfg.Slack.Timeout = l.apply("slack_timeout",
		pkgconfig.LoadEnvDuration("SLACK_TIMEOUT", cfg.Slack.Timeout, pkgconfig.ValidatePositiveDuration)).(time.Duration)

	if metrics != nil {
		metrics.RecordLoad(l.fallback)
	}
	return &cfg
}

// Validate checks the cross-field requirements of enabled optional features.
func (c *PipelineConfig) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.Publish.Enabled {
		if c.Publish.Endpoint == "" {
			return fmt.Errorf("PUBLISH_ENDPOINT is required when publishing is enabled")
		}
		if c.Publish.Bucket == "" {
			return fmt.Errorf("PUBLISH_BUCKET is required when publishing is enabled")
		}
	}
	if c.Slack.Enabled && c.Slack.WebhookURL == "" {
		return fmt.Errorf("SLACK_WEBHOOK_URL is required when SLACK_ENABLED=true")
	}
	return nil
}

// loader logs and counts fallbacks while fields are loaded.
type loader struct {
	logger   *slog.Logger
	metrics  *pkgconfig.ConfigMetrics
	fallback bool
}

func (l *loader) apply(field string, result pkgconfig.ConfigLoadResult) interface{} {
	if !result.FallbackApplied {
		return result.Value
	}
	l.fallback = true
	if l.metrics != nil {
		l.metrics.RecordFallback(field)
	}
	if l.logger != nil {
		for _, warning := range result.Warnings {
			l.logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}
	return result.Value
}
