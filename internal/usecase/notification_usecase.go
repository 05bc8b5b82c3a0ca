package usecase

import (
	"context"

	"bazaar/internal/domain/entity"
	"bazaar/internal/domain/service"
)

// NotificationUsecase serves the user's inbox and reconciles welcome notifications
// from account-linked events.
type NotificationUsecase interface {
	// EnsureWelcome creates the welcome notification unless the user already has one.
	// It reports whether a row was written.
	EnsureWelcome(ctx context.Context, event *service.AccountLinkedEvent) (bool, error)

	// List returns the user's newest notifications.
	List(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error)
}
