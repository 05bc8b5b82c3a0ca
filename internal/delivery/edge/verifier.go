// Package edge authenticates requests at the perimeter without touching storage.
package edge

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"bazaar/config"
	"bazaar/internal/delivery/api/cookie"
	deliverycontext "bazaar/internal/delivery/context"
	"bazaar/internal/domain/entity"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/domain/service"
)

// Identity is what the edge knows about a caller after a signature and expiry check.
type Identity struct {
	UserID    int64
	Email     string
	Provider  entity.ProviderType
	Source    entity.CurrentUserSource
	ExpiresAt time.Time
}

// Rejection explains why a request was turned away.
type Rejection struct {
	Err domainerrors.AppError
	// CrossDomain is set when the host cannot see the parent-domain session cookie.
	CrossDomain bool
}

func (r *Rejection) Error() string {
	return r.Err.Error()
}

// Verifier checks the session cookie JWT, then the Authorization bearer, then the
// bearer cookie. The platform session row is not consulted, so a logged-out session
// stays valid here until its JWT expires.
type Verifier struct {
	tokens       service.TokenService
	jar          *cookie.Jar
	cookieDomain string
	logger       *slog.Logger
}

func NewVerifier(cfg *config.Config, tokens service.TokenService, jar *cookie.Jar, logger *slog.Logger) *Verifier {
	return &Verifier{
		tokens:       tokens,
		jar:          jar,
		cookieDomain: normalizeDomain(cfg.Session.CookieDomain),
		logger:       logger,
	}
}

func (v *Verifier) Verify(r *http.Request) (*Identity, *Rejection) {
	var presented bool

	if c, err := r.Cookie(v.jar.SessionCookieName()); err == nil && c.Value != "" {
		presented = true
		if claims, err := v.tokens.VerifySession(c.Value); err == nil {
			return &Identity{
				UserID:    claims.UserID,
				Source:    entity.SourcePlatformSession,
				ExpiresAt: claims.ExpiresAt,
			}, nil
		}
	}

	bearers := []string{cookie.BearerFromHeader(r)}
	if c, err := r.Cookie(v.jar.BearerCookieName()); err == nil {
		bearers = append(bearers, c.Value)
	}

	for _, token := range bearers {
		if token == "" {
			continue
		}
		presented = true

		claims, err := v.tokens.VerifyBearer(token)
		if err != nil {
			continue
		}

		return &Identity{
			UserID:    claims.UserID,
			Email:     claims.Email,
			Provider:  claims.Provider,
			Source:    entity.SourceBearer,
			ExpiresAt: claims.ExpiresAt,
		}, nil
	}

	if !presented && !v.cookieVisible(r.Host) {
		deliverycontext.GetLoggerOrDefault(r.Context(), v.logger).Warn("CrossDomainCookieUnavailable",
			slog.String("host", r.Host),
			slog.String("cookie_domain", v.cookieDomain),
			slog.String("path", r.URL.Path),
		)

		return nil, &Rejection{Err: domainerrors.ErrSessionCookieUnavailable, CrossDomain: true}
	}

	return nil, &Rejection{Err: domainerrors.ErrUnauthorized}
}

// cookieVisible reports whether a cookie scoped to the configured domain reaches host.
// An unset domain means host-only cookies, which the edge cannot reason about.
func (v *Verifier) cookieVisible(host string) bool {
	if v.cookieDomain == "" {
		return true
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)

	return host == v.cookieDomain || strings.HasSuffix(host, "."+v.cookieDomain)
}

func normalizeDomain(domain string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), ".")
}
