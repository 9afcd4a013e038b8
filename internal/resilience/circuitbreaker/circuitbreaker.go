// Package circuitbreaker stops calling a data provider that keeps failing.
// It wraps github.com/sony/gobreaker with provider presets and failure classification.
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"foodsecurity-charts/internal/observability/metrics"
	"foodsecurity-charts/internal/resilience/retry"
)

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name labels logs and the circuit state metric.
	Name string

	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32

	// Interval clears the closed-state counts. Zero keeps them for the whole run.
	Interval time.Duration

	// Timeout is how long the circuit stays open before a trial request.
	Timeout time.Duration

	// FailureThreshold is the failure ratio that trips the circuit (0.6 = 60%).
	FailureThreshold float64

	// MinRequests is the number of requests before the ratio is considered.
	MinRequests uint32
}

// DefaultConfig returns a general-purpose configuration.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// SourceConfig returns configuration for one data provider.
// A run issues few requests per provider, so the breaker trips after a handful of
// consecutive failures and stays open for the rest of a typical run.
func SourceConfig(source string) Config {
	return Config{
		Name:             "source-" + source,
		MaxRequests:      1,
		Interval:         5 * time.Minute,
		Timeout:          10 * time.Minute,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// PagedAPIConfig returns configuration for paged JSON APIs, which issue many requests
// per run and tolerate a higher request count before judging the failure ratio.
func PagedAPIConfig(source string) Config {
	return Config{
		Name:             "api-" + source,
		MaxRequests:      3,
		Interval:         2 * time.Minute,
		Timeout:          5 * time.Minute,
		FailureThreshold: 0.6,
		MinRequests:      10,
	}
}

// CircuitBreaker guards calls to one provider.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a circuit breaker. Definitive client errors (4xx other than 408 and 429)
// and cancellations do not count against the provider.
func New(cfg Config) *CircuitBreaker {
	metrics.RecordCircuitState(cfg.Name, gobreaker.StateClosed.String())
	return &CircuitBreaker{
		name: cfg.Name,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < cfg.MinRequests {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
			},
			IsSuccessful: func(err error) bool {
				return !IsProviderFailure(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed",
					slog.String("circuit", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
				metrics.RecordCircuitState(name, to.String())
			},
		}),
	}
}

// IsProviderFailure reports whether err says something about the provider's health.
func IsProviderFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var httpErr *retry.HTTPError
	if errors.As(err, &httpErr) &&
		httpErr.StatusCode >= http.StatusBadRequest && httpErr.StatusCode < http.StatusInternalServerError {
		return retry.IsRetryable(err)
	}
	return true
}

// Run calls fn through the breaker. While the circuit is open it returns
// gobreaker.ErrOpenState without calling fn.
func Run[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := result.(T)
	return v, nil
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsOpen returns true if the circuit breaker is in the open state.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}
