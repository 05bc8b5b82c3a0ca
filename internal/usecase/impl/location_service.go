package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "bazaar/internal/delivery/context"
	"bazaar/internal/domain/entity"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/domain/repository"
	"bazaar/internal/usecase"
)

type locationLogService struct {
	repo   repository.LocationLogRepository
	logger *slog.Logger
}

func NewLocationLogService(repo repository.LocationLogRepository, logger *slog.Logger) usecase.LocationLogUsecase {
	return &locationLogService{
		repo:   repo,
		logger: logger,
	}
}

func (srv *locationLogService) Record(ctx context.Context, userID int64, url, code string) (*entity.LocationLog, error) {
	url = strings.TrimSpace(url)
	if userID <= 0 || url == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("url is required")
	}

	log := &entity.LocationLog{
		UserID: userID,
		URL:    url,
		Code:   strings.TrimSpace(code),
	}

	if err := srv.repo.Create(ctx, log); err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, srv.logger).Error("Failed to record location",
			slog.Any("error", err),
			slog.Int64("user_id", userID),
		)

		return nil, err
	}

	return log, nil
}
