package handler

import (
	"net/http"

	"bazaar/internal/delivery/api/middleware"
	"bazaar/internal/delivery/api/response"
	"bazaar/internal/domain/environment"

	"github.com/labstack/echo/v4"
)

// HeaderWeChatEnvironment lets a page forward window.__wxjs_environment, which the
// user agent alone does not always reveal.
const HeaderWeChatEnvironment = "X-Wxjs-Environment"

type EnvironmentResponse struct {
	Environment environment.Environment `json:"environment"`
	UserAgent   string                  `json:"userAgent"`
}

// Environment handles GET /auth/environment.
func Environment(c echo.Context) error {
	signals := environment.Signals{UserAgent: c.Request().UserAgent()}
	if wx := c.Request().Header.Get(HeaderWeChatEnvironment); wx != "" {
		signals.Globals = map[string]string{environment.GlobalWeChatEnvironment: wx}
	}

	return response.Success(c, http.StatusOK, EnvironmentResponse{
		Environment: environment.Detect(signals),
		UserAgent:   signals.UserAgent,
	})
}

// HealthCheck handles GET /health.
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// EdgeMe handles GET /api/v1/me behind EdgeAuth.
func EdgeMe(c echo.Context) error {
	identity, ok := middleware.GetEdgeIdentity(c)
	if !ok {
		return response.Unauthorized(c, "unauthorized", "authentication required")
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"userId":    identity.UserID,
		"email":     identity.Email,
		"provider":  identity.Provider,
		"source":    identity.Source,
		"expiresAt": identity.ExpiresAt,
	})
}
