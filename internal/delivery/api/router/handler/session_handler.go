package handler

import (
	"log/slog"
	"net/http"
	"time"

	"bazaar/internal/delivery/api/cookie"
	"bazaar/internal/delivery/api/middleware"
	"bazaar/internal/delivery/api/response"
	"bazaar/internal/domain/entity"
	"bazaar/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type SessionHandlerParams struct {
	fx.In

	SessionUC usecase.SessionUsecase
	Jar       *cookie.Jar
	Logger    *slog.Logger
}

// SessionHandler exposes the merged session view and its lifecycle.
type SessionHandler struct {
	sessionUC usecase.SessionUsecase
	jar       *cookie.Jar
	logger    *slog.Logger
}

func NewSessionHandler(params SessionHandlerParams) *SessionHandler {
	return &SessionHandler{
		sessionUC: params.SessionUC,
		jar:       params.Jar,
		logger:    params.Logger,
	}
}

type AdoptSessionRequest struct {
	Token string `json:"token"`
}

type SessionResponse struct {
	User      *entity.CurrentUser `json:"user"`
	ExpiresAt time.Time           `json:"expiresAt"`
}

type MeResponse struct {
	User       *entity.CurrentUser `json:"user"`
	IsLoggedIn bool                `json:"isLoggedIn"`
}

// Adopt handles POST /auth/session/adopt: a verified bearer becomes a platform session.
func (h *SessionHandler) Adopt(c echo.Context) error {
	var req AdoptSessionRequest
	_ = c.Bind(&req)

	if req.Token == "" {
		req.Token = cookie.BearerFromHeader(c.Request())
	}

	output, err := h.sessionUC.Adopt(c.Request().Context(), req.Token)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	h.jar.SetSession(c, output.SessionToken, output.ExpiresAt)

	return response.Success(c, http.StatusOK, SessionResponse{
		User:      output.User,
		ExpiresAt: output.ExpiresAt,
	})
}

// Me handles GET /auth/me. Guests get 200 with isLoggedIn=false.
func (h *SessionHandler) Me(c echo.Context) error {
	user, ok := middleware.GetCurrentUser(c)

	return response.Success(c, http.StatusOK, MeResponse{User: user, IsLoggedIn: ok})
}

// Logout handles POST /auth/logout and always clears every session cookie.
func (h *SessionHandler) Logout(c echo.Context) error {
	err := h.sessionUC.Logout(c.Request().Context(), h.jar.Credentials(c.Request()))
	h.jar.ClearAll(c)

	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]bool{"loggedOut": true})
}
