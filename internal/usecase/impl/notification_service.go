package impl

import (
	"context"
	"log/slog"

	deliverycontext "bazaar/internal/delivery/context"
	"bazaar/internal/domain/entity"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/domain/repository"
	"bazaar/internal/domain/service"
	"bazaar/internal/usecase"

	"github.com/pkg/errors"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

type notificationService struct {
	logger           *slog.Logger
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
}

// NewNotificationService creates a new notification service instance
func NewNotificationService(
	logger *slog.Logger,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
) usecase.NotificationUsecase {
	return &notificationService{
		logger:           logger,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
	}
}

// EnsureWelcome is safe to call for every delivery of the same event.
func (s *notificationService) EnsureWelcome(ctx context.Context, event *service.AccountLinkedEvent) (bool, error) {
	if event == nil || event.UserID <= 0 {
		return false, domainerrors.ErrValidationFailed.WrapMessage("account-linked event without user")
	}

	logger := deliverycontext.GetLoggerOrDefault(ctx, s.logger)

	if _, err := s.userRepo.FindByID(ctx, event.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, domainerrors.ErrUserNotFound.WrapMessage("linked user no longer exists")
		}

		return false, errors.Wrap(err, "failed to load linked user")
	}

	existing, err := s.notificationRepo.ListByUser(ctx, event.UserID, 0)
	if err != nil {
		return false, errors.Wrap(err, "failed to list notifications")
	}

	for _, n := range existing {
		if n.Type == entity.NotificationTypeWelcome {
			logger.Debug("Welcome notification already present", slog.Int64("user_id", event.UserID))

			return false, nil
		}
	}

	welcome := entity.NewWelcomeNotification(event.UserID, entity.ProviderType(event.Provider))
	if err := s.notificationRepo.Create(ctx, welcome); err != nil {
		return false, errors.Wrap(err, "failed to create welcome notification")
	}

	logger.Info("Welcome notification backfilled",
		slog.Int64("user_id", event.UserID),
		slog.String("provider", event.Provider),
	)

	return true, nil
}

func (s *notificationService) List(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error) {
	switch {
	case limit <= 0:
		limit = defaultNotificationLimit
	case limit > maxNotificationLimit:
		limit = maxNotificationLimit
	}

	notifications, err := s.notificationRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}

	return notifications, nil
}
