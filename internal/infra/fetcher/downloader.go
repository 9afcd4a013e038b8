package fetcher

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"foodsecurity-charts/internal/observability/logging"
	"foodsecurity-charts/internal/observability/metrics"
	"foodsecurity-charts/internal/resilience/circuitbreaker"
	"foodsecurity-charts/internal/resilience/retry"
)

// Downloader fetches payloads from one data provider.
//
// Features:
//   - Retry with exponential backoff on transient failures
//   - Circuit breaker per provider
//   - Optional request rate limit (paged APIs)
//   - Size limiting to prevent memory exhaustion
//   - Timeout per request
//
// Thread safety: Downloader is safe for concurrent use.
type Downloader struct {
	source  string
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	limiter *rate.Limiter
	config  Config
	retry   retry.Config
}

// Option customizes a Downloader.
type Option func(*Downloader)

// WithHTTPClient replaces the HTTP client. Redirect limits then belong to the caller.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		d.client = client
	}
}

// WithCircuitBreaker replaces the provider circuit breaker configuration.
func WithCircuitBreaker(cfg circuitbreaker.Config) Option {
	return func(d *Downloader) {
		d.breaker = circuitbreaker.New(cfg)
	}
}

// WithRetry replaces the retry configuration.
func WithRetry(cfg retry.Config) Option {
	return func(d *Downloader) {
		d.retry = cfg
	}
}

// New creates a Downloader for the named provider.
//
// Example:
//
//	d := fetcher.New("worldbank", fetcher.DefaultConfig())
//	body, err := d.Get(ctx, "https://api.worldbank.org/v2/country?format=json")
func New(source string, cfg Config, opts ...Option) *Downloader {
	d := &Downloader{
		source:  source,
		config:  cfg,
		breaker: circuitbreaker.New(circuitbreaker.SourceConfig(source)),
		retry:   retry.SourceDownloadConfig(cfg.MaxAttempts),
	}
	if cfg.RequestsPerSecond > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	d.client = &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= d.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			return nil
		},
	}

	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Source returns the provider name used in logs and metrics.
func (d *Downloader) Source() string {
	return d.source
}

// Get downloads rawURL and returns the body. Failures that survive retries are wrapped
// with ErrSourceUnavailable; the underlying *retry.HTTPError stays reachable via errors.As.
func (d *Downloader) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx)
	start := time.Now()

	var body []byte
	err := retry.WithBackoff(ctx, d.retry, func() error {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var err error
		body, err = circuitbreaker.Run(d.breaker, func() ([]byte, error) {
			return d.doGet(ctx, rawURL)
		})
		return err
	})
	metrics.RecordSourceFetch(d.source, time.Since(start), err)

	if err != nil {
		logger.Warn("download failed",
			slog.String("source", d.source),
			slog.String("url", logging.SanitizeString(rawURL)),
			slog.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, d.source, err)
	}

	logger.Debug("download complete",
		slog.String("source", d.source),
		slog.String("url", logging.SanitizeString(rawURL)),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)))
	return body, nil
}

// GetJSON downloads rawURL and decodes the JSON body into v.
func (d *Downloader) GetJSON(ctx context.Context, rawURL string, v any) error {
	body, err := d.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s response: %w", d.source, err)
	}
	return nil
}

// GetOrRead returns the content of a manually staged file when localPath exists and
// downloads rawURL otherwise.
func (d *Downloader) GetOrRead(ctx context.Context, localPath, rawURL string) ([]byte, error) {
	if localPath != "" {
		body, err := readLimited(localPath, d.config.MaxBodySize)
		if err == nil {
			logging.FromContext(ctx).Info("using staged file",
				slog.String("source", d.source),
				slog.String("path", localPath))
			return body, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	if rawURL == "" {
		return nil, fmt.Errorf("%w: %s: no staged file at %q and no download URL", ErrSourceUnavailable, d.source, localPath)
	}
	return d.Get(ctx, rawURL)
}

func (d *Downloader) doGet(ctx context.Context, rawURL string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", d.config.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			// 単一リクエストのタイムアウトはリトライ対象にする
			return nil, &retry.HTTPError{
				StatusCode: http.StatusRequestTimeout,
				Message:    fmt.Sprintf("%v: request exceeded %v", ErrTimeout, d.config.Timeout),
			}
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && errors.Is(urlErr.Err, ErrTooManyRedirects) {
			return nil, urlErr.Err
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
			RetryAfter: retryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.config.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > d.config.MaxBodySize {
		return nil, fmt.Errorf("%w: response exceeds limit %d bytes", ErrBodyTooLarge, d.config.MaxBodySize)
	}
	return body, nil
}

func readLimited(path string, limit int64) ([]byte, error) {
	// #nosec G304 -- staged input paths come from configuration
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read staged file %s: %w", path, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: staged file %s exceeds %d bytes", ErrBodyTooLarge, path, limit)
	}
	return body, nil
}

// validateURL accepts absolute http and https URLs only.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: parse error: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme '%s' not allowed (only http/https)", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}
	return nil
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date.
func retryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
