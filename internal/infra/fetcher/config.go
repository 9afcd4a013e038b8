// Package fetcher downloads provider payloads over HTTP with retries, a circuit breaker
// per provider, an optional request rate limit and a body size cap.
package fetcher

import (
	"time"

	"foodsecurity-charts/internal/config"
)

// Config holds the configuration of a Downloader.
type Config struct {
	// Timeout is the maximum duration of a single HTTP request.
	// Default: 60s
	Timeout time.Duration

	// MaxAttempts is the number of attempts per download, including the first one.
	// Default: 3
	MaxAttempts int

	// MaxBodySize is the maximum payload size in bytes. It is enforced while reading,
	// not from the Content-Length header.
	// Default: 64 MiB
	MaxBodySize int64

	// MaxRedirects is the maximum number of redirects to follow.
	// Default: 5
	MaxRedirects int

	// RequestsPerSecond throttles requests to the provider. Zero disables throttling.
	RequestsPerSecond float64

	// UserAgent identifies the pipeline to providers.
	UserAgent string
}

// DefaultConfig returns the default download configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:      60 * time.Second,
		MaxAttempts:  3,
		MaxBodySize:  64 << 20,
		MaxRedirects: 5,
		UserAgent:    "foodsecurity-charts/1.0",
	}
}

// ConfigFrom derives the download configuration from the pipeline settings.
func ConfigFrom(fetch config.FetchConfig) Config {
	cfg := DefaultConfig()
	cfg.Timeout = fetch.Timeout
	cfg.MaxAttempts = fetch.MaxAttempts
	cfg.MaxBodySize = fetch.MaxBodySize
	if fetch.UserAgent != "" {
		cfg.UserAgent = fetch.UserAgent
	}
	return cfg
}
