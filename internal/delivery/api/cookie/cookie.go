// Package cookie reads and writes every session credential the API understands.
package cookie

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bazaar/config"
	"bazaar/internal/domain/entity"
	"bazaar/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	// LegacyUserIDName and LegacyUserInfoName are read by pages that predate provider sign-in.
	LegacyUserIDName   = "userId"
	LegacyUserInfoName = "userInfo"

	bearerScheme = "bearer"
)

// Jar knows the cookie names and scope for the configured deployment.
type Jar struct {
	cfg *config.SessionConfig
	now func() time.Time
}

func NewJar(cfg *config.Config) *Jar {
	return &Jar{cfg: cfg.Session, now: time.Now}
}

// SessionCookieName is the platform session cookie.
func (j *Jar) SessionCookieName() string { return j.cfg.SessionCookieName }

// BearerCookieName is the optional cookie copy of a bearer token.
func (j *Jar) BearerCookieName() string { return j.cfg.BearerCookieName }

// Credentials gathers the raw credentials on r. The Authorization header wins over the
// bearer cookie because subdomain handlers never see parent-domain cookies.
func (j *Jar) Credentials(r *http.Request) usecase.Credentials {
	creds := usecase.Credentials{
		SessionToken: value(r, j.cfg.SessionCookieName),
		BearerToken:  BearerFromHeader(r),
		LegacyUserID: value(r, LegacyUserIDName),
	}

	if creds.BearerToken == "" {
		creds.BearerToken = value(r, j.cfg.BearerCookieName)
	}

	if raw := value(r, LegacyUserInfoName); raw != "" {
		if decoded, err := url.QueryUnescape(raw); err == nil {
			raw = decoded
		}
		creds.LegacyUserInfo = raw
	}

	return creds
}

// BearerFromHeader returns the token of an "Authorization: Bearer" header, or "".
func BearerFromHeader(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get(echo.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return ""
	}

	return strings.TrimSpace(token)
}

// SetSession writes the platform session cookie scoped to the configured parent domain.
func (j *Jar) SetSession(c echo.Context, token string, expiresAt time.Time) {
	c.SetCookie(j.build(j.cfg.SessionCookieName, token, expiresAt, true))
}

// SetLegacy writes the userId (httpOnly) and userInfo (script readable) cookies.
func (j *Jar) SetLegacy(c echo.Context, info entity.LegacyUserInfo) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return errors.Wrap(err, "failed to encode userInfo cookie")
	}

	expiresAt := j.now().Add(j.cfg.LegacyTTL)
	c.SetCookie(j.build(LegacyUserIDName, strconv.FormatInt(info.ID, 10), expiresAt, true))
	c.SetCookie(j.build(LegacyUserInfoName, url.QueryEscape(string(payload)), expiresAt, false))

	return nil
}

// ClearAll expires every session cookie. Logout cannot know which channel is active.
func (j *Jar) ClearAll(c echo.Context) {
	for _, name := range []string{j.cfg.SessionCookieName, j.cfg.BearerCookieName, LegacyUserIDName, LegacyUserInfoName} {
		expired := j.build(name, "", time.Unix(0, 0), name != LegacyUserInfoName)
		expired.MaxAge = -1
		c.SetCookie(expired)
	}
}

func (j *Jar) build(name, val string, expiresAt time.Time, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    val,
		Path:     "/",
		Domain:   j.cfg.CookieDomain,
		Expires:  expiresAt,
		HttpOnly: httpOnly,
		Secure:   j.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func value(r *http.Request, name string) string {
	if name == "" {
		return ""
	}

	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}

	return c.Value
}
