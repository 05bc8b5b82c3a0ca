package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"bazaar/internal/delivery/api/middleware"
	"bazaar/internal/delivery/api/response"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type NotificationHandlerParams struct {
	fx.In

	NotificationUC usecase.NotificationUsecase
	Logger         *slog.Logger
}

type NotificationHandler struct {
	notificationUC usecase.NotificationUsecase
	logger         *slog.Logger
}

func NewNotificationHandler(params NotificationHandlerParams) *NotificationHandler {
	return &NotificationHandler{
		notificationUC: params.NotificationUC,
		logger:         params.Logger,
	}
}

// ListNotifications handles GET /api/v1/notifications?limit=.
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return response.Unauthorized(c, domainerrors.ErrUnauthorized.ErrorCode(), domainerrors.ErrUnauthorized.Message())
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return response.BadRequest(c, domainerrors.ErrValidationFailed.ErrorCode(), "limit must be a non-negative integer")
		}
		limit = parsed
	}

	notifications, err := h.notificationUC.List(c.Request().Context(), user.ID, limit)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, notifications)
}
