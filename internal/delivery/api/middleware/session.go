package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"bazaar/config"
	"bazaar/internal/delivery/api/cookie"
	"bazaar/internal/delivery/api/response"
	deliverycontext "bazaar/internal/delivery/context"
	"bazaar/internal/domain/entity"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SessionMiddleware resolves the merged CurrentUser once per request.
type SessionMiddleware struct {
	sessions   usecase.SessionUsecase
	jar        *cookie.Jar
	signInPath string
	logger     *slog.Logger
}

func NewSessionMiddleware(cfg *config.Config, sessions usecase.SessionUsecase, jar *cookie.Jar, logger *slog.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		sessions:   sessions,
		jar:        jar,
		signInPath: cfg.Session.SignInPath,
		logger:     logger,
	}
}

// CurrentUser never rejects. Guests continue with a nil user.
func (m *SessionMiddleware) CurrentUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, resolved := deliverycontext.CurrentUser(c); resolved {
			return next(c)
		}

		ctx := c.Request().Context()
		user, err := m.sessions.Resolve(ctx, m.jar.Credentials(c.Request()))
		if err != nil {
			deliverycontext.GetLoggerOrDefault(ctx, m.logger).Error("Failed to resolve current user", slog.Any("error", err))
			user = nil
		}

		deliverycontext.SetCurrentUser(c, user)

		return next(c)
	}
}

// RequireCurrentUser must run after CurrentUser. API callers get 401; pages are sent
// to sign-in with a callbackUrl pointing back at the original path.
func (m *SessionMiddleware) RequireCurrentUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if user, _ := deliverycontext.CurrentUser(c); user != nil {
			return next(c)
		}

		req := c.Request()
		if isAPIRequest(req) {
			return response.Unauthorized(c, domainerrors.ErrUnauthorized.ErrorCode(), domainerrors.ErrUnauthorized.Message())
		}

		target := m.signInPath + "?callbackUrl=" + url.QueryEscape(req.URL.RequestURI())

		return c.Redirect(http.StatusFound, target)
	}
}

// GetCurrentUser returns the signed-in user for handlers behind RequireCurrentUser.
func GetCurrentUser(c echo.Context) (*entity.CurrentUser, bool) {
	user, _ := deliverycontext.CurrentUser(c)

	return user, user != nil
}

func isAPIRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/auth/") {
		return true
	}

	return strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
