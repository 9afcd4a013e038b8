// Package resilience provides the fault tolerance used around provider downloads.
//
// The package supports:
//   - Circuit breakers per data provider (World Bank, FAO, IPC, USDA)
//   - Retry logic with exponential backoff and jitter
//
// Retries absorb transient failures; once attempts are exhausted the error surfaces and
// the run stops at the chart that needed the data.
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.SourceConfig("worldbank"))
//	body, err := circuitbreaker.Run(cb, func() ([]byte, error) {
//	    return download(ctx, url)
//	})
//
//	err := retry.WithBackoff(ctx, retry.SourceDownloadConfig(3), func() error {
//	    return performOperation()
//	})
package resilience
