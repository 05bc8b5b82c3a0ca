package handler

import (
	"log/slog"
	"net/http"

	"bazaar/config"
	"bazaar/internal/delivery/api/cookie"
	"bazaar/internal/delivery/api/response"
	"bazaar/internal/domain/entity"
	"bazaar/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type OAuthHandlerParams struct {
	fx.In

	Config  *config.Config
	OAuthUC usecase.OAuthUsecase
	Jar     *cookie.Jar
	Logger  *slog.Logger
}

// OAuthHandler runs redirect-based sign-in and the sign-in landing endpoint.
type OAuthHandler struct {
	oauthUC usecase.OAuthUsecase
	jar     *cookie.Jar
	liffID  string
	logger  *slog.Logger
}

func NewOAuthHandler(params OAuthHandlerParams) *OAuthHandler {
	return &OAuthHandler{
		oauthUC: params.OAuthUC,
		jar:     params.Jar,
		liffID:  params.Config.Line.LiffID,
		logger:  params.Logger,
	}
}

type SignInOptionsResponse struct {
	CallbackURL string   `json:"callbackUrl"`
	Redirect    []string `json:"redirectProviders"`
	Silent      []string `json:"silentProviders"`
	LiffID      string   `json:"liffId,omitempty"`
}

// SignInOptions handles GET /auth/signin, where RequireCurrentUser sends guests.
func (h *OAuthHandler) SignInOptions(c echo.Context) error {
	return response.Success(c, http.StatusOK, SignInOptionsResponse{
		CallbackURL: c.QueryParam("callbackUrl"),
		Redirect:    []string{entity.ProviderTypeFacebook.String()},
		Silent:      []string{entity.ProviderTypeLine.String(), entity.ProviderTypeWeChat.String()},
		LiffID:      h.liffID,
	})
}

// SignIn handles GET /auth/signin/:provider by redirecting to the provider.
func (h *OAuthHandler) SignIn(c echo.Context) error {
	provider := entity.ProviderType(c.Param("provider"))

	authURL, err := h.oauthUC.StartSignIn(c.Request().Context(), provider, c.QueryParam("callbackUrl"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return c.Redirect(http.StatusFound, authURL)
}

// Callback handles GET /auth/callback/:provider.
func (h *OAuthHandler) Callback(c echo.Context) error {
	provider := entity.ProviderType(c.Param("provider"))

	output, err := h.oauthUC.CompleteSignIn(c.Request().Context(), provider, c.QueryParam("code"), c.QueryParam("state"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	h.jar.SetSession(c, output.Session.SessionToken, output.Session.ExpiresAt)

	return c.Redirect(http.StatusFound, output.CallbackURL)
}
