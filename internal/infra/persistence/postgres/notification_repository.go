package postgres

import (
	"context"

	"bazaar/internal/domain/entity"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/domain/repository"
	"bazaar/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// notificationRepository implements the repository.NotificationRepository interface.
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository is the constructor for notificationRepository.
func NewNotificationRepository(db *gorm.DB) repository.NotificationRepository {
	return &notificationRepository{
		db: db,
	}
}

// Create persists a notification row for the user's inbox.
func (repo *notificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	notificationM := &model.NotificationModel{
		UserID:  notification.UserID,
		Title:   notification.Title,
		Content: notification.Content,
		Type:    notification.Type,
		IsRead:  notification.IsRead,
	}

	if err := repo.db.WithContext(ctx).Create(notificationM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserCreationFailed.WrapMessage("invalid user reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create notification")
	}

	notification.ID = notificationM.ID
	notification.CreatedAt = notificationM.CreatedAt

	return nil
}

// ListByUser retrieves the newest notifications for a user.
func (repo *notificationRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error) {
	var notificationModels []*model.NotificationModel

	query := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&notificationModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list notifications by user")
	}

	notifications := make([]*entity.Notification, 0, len(notificationModels))
	for _, m := range notificationModels {
		notifications = append(notifications, &entity.Notification{
			ID:        m.ID,
			UserID:    m.UserID,
			Title:     m.Title,
			Content:   m.Content,
			Type:      m.Type,
			IsRead:    m.IsRead,
			CreatedAt: m.CreatedAt,
		})
	}

	return notifications, nil
}
