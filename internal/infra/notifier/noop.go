package notifier

import (
	"context"

	"foodsecurity-charts/internal/domain/entity"
)

// NoOpNotifier is used when run reports are disabled.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// NotifyRun does nothing and returns nil.
func (n *NoOpNotifier) NotifyRun(ctx context.Context, report *entity.RunReport) error {
	return nil
}
