package handler

import (
	"log/slog"
	"net/http"

	"bazaar/internal/delivery/api/middleware"
	"bazaar/internal/delivery/api/response"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type LocationHandlerParams struct {
	fx.In

	LocationUC usecase.LocationLogUsecase
	Logger     *slog.Logger
}

// LocationHandler records pages opened inside the WeChat mini-program.
type LocationHandler struct {
	locationUC usecase.LocationLogUsecase
	logger     *slog.Logger
}

func NewLocationHandler(params LocationHandlerParams) *LocationHandler {
	return &LocationHandler{
		locationUC: params.LocationUC,
		logger:     params.Logger,
	}
}

type CreateLocationLogRequest struct {
	URL  string `json:"url" validate:"required,max=2048"`
	Code string `json:"code" validate:"max=255"`
}

// CreateLocationLog handles POST /api/v1/location-logs.
func (h *LocationHandler) CreateLocationLog(c echo.Context) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return response.Unauthorized(c, domainerrors.ErrUnauthorized.ErrorCode(), domainerrors.ErrUnauthorized.Message())
	}

	var req CreateLocationLogRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "validation_failed", "Invalid location input")
	}

	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	log, err := h.locationUC.Record(c.Request().Context(), user.ID, req.URL, req.Code)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, log)
}
