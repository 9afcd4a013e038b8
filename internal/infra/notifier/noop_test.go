package notifier

import (
	"context"
	"errors"
	"testing"

	"foodsecurity-charts/internal/domain/entity"
)

func TestNoOpNotifier_NotifyRun(t *testing.T) {
	t.Run("TC-1: should return nil for a successful run", func(t *testing.T) {
		n := NewNoOpNotifier()

		err := n.NotifyRun(context.Background(), &entity.RunReport{RunID: "run-1"})

		if err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("TC-2: should return nil for a failed run", func(t *testing.T) {
		n := NewNoOpNotifier()

		err := n.NotifyRun(context.Background(), &entity.RunReport{RunID: "run-2", Err: errors.New("boom")})

		if err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("TC-3: should satisfy the Notifier interface", func(t *testing.T) {
		var _ Notifier = NewNoOpNotifier()
	})
}
