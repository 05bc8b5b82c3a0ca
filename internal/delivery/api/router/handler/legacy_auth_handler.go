package handler

import (
	"log/slog"
	"net/http"

	"bazaar/internal/delivery/api/cookie"
	"bazaar/internal/delivery/api/response"
	"bazaar/internal/domain/entity"
	"bazaar/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type LegacyAuthHandlerParams struct {
	fx.In

	LegacyAuthUC usecase.LegacyAuthUsecase
	Jar          *cookie.Jar
	Logger       *slog.Logger
}

// LegacyAuthHandler serves the username/password channel and its cookies.
type LegacyAuthHandler struct {
	legacyAuthUC usecase.LegacyAuthUsecase
	jar          *cookie.Jar
	logger       *slog.Logger
}

func NewLegacyAuthHandler(params LegacyAuthHandlerParams) *LegacyAuthHandler {
	return &LegacyAuthHandler{
		legacyAuthUC: params.LegacyAuthUC,
		jar:          params.Jar,
		logger:       params.Logger,
	}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"max=255"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LegacyUserResponse struct {
	User entity.LegacyUserInfo `json:"user"`
}

// Register handles POST /auth/register.
func (h *LegacyAuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "validation_failed", "Invalid registration input")
	}

	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.legacyAuthUC.Register(c.Request().Context(), usecase.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, LegacyUserResponse{User: entity.LegacyUserInfo{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Username: user.DisplayUsername(),
	}})
}

// Login handles POST /auth/login and sets the userId and userInfo cookies.
func (h *LegacyAuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "validation_failed", "Invalid login input")
	}

	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.legacyAuthUC.Login(c.Request().Context(), usecase.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	if err := h.jar.SetLegacy(c, output.Info); err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, LegacyUserResponse{User: output.Info})
}
