// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"bazaar/config"
	"bazaar/internal/delivery/api/middleware"
	"bazaar/internal/delivery/api/router/handler"
	"bazaar/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	Config              *config.Config
	ExchangeHandler     *handler.ExchangeHandler
	SessionHandler      *handler.SessionHandler
	LegacyAuthHandler   *handler.LegacyAuthHandler
	OAuthHandler        *handler.OAuthHandler
	LocationHandler     *handler.LocationHandler
	NotificationHandler *handler.NotificationHandler
	SessionMiddleware   *middleware.SessionMiddleware
	EdgeAuth            *middleware.EdgeAuth
	Gatherer            prometheus.Gatherer `optional:"true"`
}

type router struct {
	config              *config.Config
	exchangeHandler     *handler.ExchangeHandler
	sessionHandler      *handler.SessionHandler
	legacyAuthHandler   *handler.LegacyAuthHandler
	oauthHandler        *handler.OAuthHandler
	locationHandler     *handler.LocationHandler
	notificationHandler *handler.NotificationHandler
	sessionMiddleware   *middleware.SessionMiddleware
	edgeAuth            *middleware.EdgeAuth
	gatherer            prometheus.Gatherer
}

// NewRouter is the constructor for the Router.
func NewRouter(params RouterParams) *router {
	return &router{
		config:              params.Config,
		exchangeHandler:     params.ExchangeHandler,
		sessionHandler:      params.SessionHandler,
		legacyAuthHandler:   params.LegacyAuthHandler,
		oauthHandler:        params.OAuthHandler,
		locationHandler:     params.LocationHandler,
		notificationHandler: params.NotificationHandler,
		sessionMiddleware:   params.SessionMiddleware,
		edgeAuth:            params.EdgeAuth,
		gatherer:            params.Gatherer,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	if r.config.Metrics.Enabled && r.gatherer != nil {
		e.GET(r.config.Metrics.Path, echo.WrapHandler(metrics.Handler(r.gatherer)))
	}

	limiters := middleware.NewRateLimiters(r.config)

	authGroup := e.Group("/auth", r.sessionMiddleware.CurrentUser)
	{
		authGroup.GET("/environment", handler.Environment)

		authGroup.POST("/exchange/line", r.exchangeHandler.ExchangeLine, limiters.Exchange)
		authGroup.POST("/exchange/wechat", r.exchangeHandler.ExchangeWeChat, limiters.Exchange)

		authGroup.POST("/session/adopt", r.sessionHandler.Adopt)
		authGroup.GET("/me", r.sessionHandler.Me)
		authGroup.POST("/logout", r.sessionHandler.Logout)

		authGroup.POST("/register", r.legacyAuthHandler.Register, limiters.Credential)
		authGroup.POST("/login", r.legacyAuthHandler.Login, limiters.Credential)

		authGroup.GET("/signin", r.oauthHandler.SignInOptions)
		authGroup.GET("/signin/:provider", r.oauthHandler.SignIn)
		authGroup.GET("/callback/:provider", r.oauthHandler.Callback)
	}

	apiV1 := e.Group("/api/v1")
	{
		// May be served from a subdomain that never sees the session cookie.
		apiV1.GET("/me", handler.EdgeMe, r.edgeAuth.Authenticate)

		member := []echo.MiddlewareFunc{r.sessionMiddleware.CurrentUser, r.sessionMiddleware.RequireCurrentUser}
		apiV1.POST("/location-logs", r.locationHandler.CreateLocationLog, member...)
		apiV1.GET("/notifications", r.notificationHandler.ListNotifications, member...)
	}
}
