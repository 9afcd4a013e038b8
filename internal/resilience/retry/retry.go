// Package retry re-runs provider downloads that fail transiently, waiting with
// exponential backoff and jitter between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"

	"foodsecurity-charts/internal/observability/logging"
)

// Config describes how often and how patiently an operation is retried.
type Config struct {
	// MaxAttempts counts the first call. Values below 1 behave as 1.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps every wait, including server-provided Retry-After hints.
	MaxDelay time.Duration

	// Multiplier grows the wait after each failed attempt.
	Multiplier float64

	// JitterFraction adds up to this fraction of the wait at random (0.0 to 1.0).
	JitterFraction float64
}

// SourceDownloadConfig is used for whole-file downloads (spreadsheets, zip archives,
// CSV exports). Providers publish large files from slow hosts, so the delays are generous.
func SourceDownloadConfig(maxAttempts int) Config {
	return Config{
		MaxAttempts:    max(maxAttempts, 1),
		InitialDelay:   2 * time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// APIPageConfig is used for single pages of a paged JSON API.
func APIPageConfig(maxAttempts int) Config {
	return Config{
		MaxAttempts:    max(maxAttempts, 1),
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       10 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// HTTPError is a non-200 provider response.
type HTTPError struct {
	StatusCode int
	Message    string
	// RetryAfter is the server's Retry-After hint, zero when absent.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// WithBackoff calls fn until it succeeds, returns a non-retryable error or runs out of
// attempts. A Retry-After hint replaces the computed wait when it is longer.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	logger := logging.FromContext(ctx)
	attempts := max(cfg.MaxAttempts, 1)
	b := backoff{cfg: cfg, next: cfg.InitialDelay}

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			if attempt > 1 {
				logger.Info("download succeeded after retry", slog.Int("attempt", attempt))
			}
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		wait := b.wait(err)
		logger.Warn("download failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", wait),
			slog.String("error", logging.SanitizeError(err)))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}
	}
	return fmt.Errorf("max retry attempts (%d) exceeded: %w", attempts, err)
}

// backoff yields successive waits.
type backoff struct {
	cfg  Config
	next time.Duration
}

func (b *backoff) wait(err error) time.Duration {
	d := b.next
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > d {
		d = httpErr.RetryAfter
	}
	if b.cfg.MaxDelay > 0 && d > b.cfg.MaxDelay {
		d = b.cfg.MaxDelay
	}

	grown := time.Duration(float64(b.next) * b.cfg.Multiplier)
	if b.cfg.MaxDelay > 0 && grown > b.cfg.MaxDelay {
		grown = b.cfg.MaxDelay
	}
	b.next = grown
	return addJitter(d, b.cfg.JitterFraction)
}

// IsRetryable reports whether err is transient: network timeouts, refused or reset
// connections, truncated bodies and 5xx, 429 or 408 responses. Context errors never are.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ETIMEDOUT), errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusRequestTimeout:
			return true
		}
		return httpErr.StatusCode >= 500
	}
	return false
}

func addJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	fraction = min(fraction, 1.0)
	// #nosec G404 -- jitter does not need a cryptographic source
	return d + time.Duration(rand.Float64()*float64(d)*fraction)
}
