package fetcher

import "errors"

var (
	// ErrSourceUnavailable wraps every download failure that survived retries.
	// Readers convert it into the provider's own message.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("invalid URL or unsupported scheme")

	// ErrTooManyRedirects is returned when a provider redirects more than MaxRedirects times.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge is returned when a payload exceeds MaxBodySize.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout is returned when a single request exceeds the configured timeout.
	ErrTimeout = errors.New("request timeout")
)
