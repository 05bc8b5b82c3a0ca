// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"bazaar/internal/domain/entity"
)

// NotificationRepository writes to the notifications store.
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error

	// ListByUser returns the newest notifications first.
	ListByUser(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error)
}
