package notifier

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// defaultRetryAfter is used when a 429 response carries no usable hint.
const defaultRetryAfter = 5 * time.Second

// extractRetryAfter reads the wait time of a 429 from the Retry-After header (seconds)
// or from a JSON body field retry_after. Other statuses carry no hint.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	if resp.StatusCode != http.StatusTooManyRequests {
		return 0
	}
	if h := resp.Header.Get("Retry-After"); h != "" {
		if secs, err := strconv.Atoi(h); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	var payload struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.RetryAfter > 0 {
		return time.Duration(payload.RetryAfter * float64(time.Second))
	}
	return defaultRetryAfter
}

// truncate shortens text to maxLength bytes, ending with suffix when cut.
func truncate(text string, maxLength int, suffix string) string {
	if len(text) <= maxLength {
		return text
	}
	cut := maxLength - len(suffix)
	if cut < 0 {
		cut = 0
	}
	return text[:cut] + suffix
}
