// Package notifier sends run reports to chat channels.
// It defines the Notifier interface so the run service can report through Slack or,
// when reporting is disabled, through a no-op implementation.
package notifier

import (
	"context"

	"foodsecurity-charts/internal/domain/entity"
)

// Notifier sends a summary of a finished pipeline run.
// Implementations handle rate limiting, retries and error logging internally.
type Notifier interface {
	// NotifyRun sends the report of a finished run, successful or not.
	//
	// Returns:
	//   - error: Non-nil if the notification failed after all retry attempts
	NotifyRun(ctx context.Context, report *entity.RunReport) error
}
