package middleware

import (
	"time"

	"bazaar/config"
	domainerrors "bazaar/internal/domain/errors"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimiters holds one per-IP limiter per route group. Each owns its store, so
// exhausting one group never throttles another.
type RateLimiters struct {
	// Exchange guards the provider exchanges. Each may cost a provider round trip.
	Exchange echo.MiddlewareFunc
	// Credential guards password register and login.
	Credential echo.MiddlewareFunc
}

func NewRateLimiters(cfg *config.Config) RateLimiters {
	return RateLimiters{
		Exchange:   newIPRateLimiter(cfg.RateLimit.ExchangeRPS, cfg.RateLimit.ExchangeBurst),
		Credential: newIPRateLimiter(cfg.RateLimit.CredentialRPS, cfg.RateLimit.CredentialBurst),
	}
}

func newIPRateLimiter(rps float64, burst int) echo.MiddlewareFunc {
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(rps),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})

	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(_ echo.Context, _ string, _ error) error {
			return domainerrors.ErrTooManyRequests
		},
		ErrorHandler: func(_ echo.Context, err error) error {
			return domainerrors.ErrInternalError.WrapMessage(err.Error())
		},
	})
}
