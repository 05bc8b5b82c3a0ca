package cookie

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bazaar/config"
	"bazaar/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJar() *Jar {
	return &Jar{
		cfg: &config.SessionConfig{
			CookieDomain:      ".bazaar.test",
			SessionCookieName: "bazaar.session-token",
			BearerCookieName:  "bazaar.bearer",
			LegacyTTL:         7 * 24 * time.Hour,
		},
		now: func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestJar_CredentialsHeaderBeatsCookie(t *testing.T) {
	jar := newTestJar()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: "bazaar.bearer", Value: "cookie-token"})
	req.AddCookie(&http.Cookie{Name: "bazaar.session-token", Value: "sess"})

	creds := jar.Credentials(req)
	assert.Equal(t, "header-token", creds.BearerToken)
	assert.Equal(t, "sess", creds.SessionToken)

	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	assert.Equal(t, "cookie-token", jar.Credentials(req).BearerToken)

	req.Header.Set("Authorization", "bearer   lower-case  ")
	assert.Equal(t, "lower-case", jar.Credentials(req).BearerToken)
}

func TestJar_LegacyRoundTrip(t *testing.T) {
	jar := newTestJar()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/login", nil), rec)

	info := entity.LegacyUserInfo{ID: 12, Email: "carol@example.com", Name: "Carol, Jr.", Username: "carol"}
	require.NoError(t, jar.SetLegacy(c, info))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		assert.Equal(t, "bazaar.test", ck.Domain)
		assert.Equal(t, jar.now().Add(7*24*time.Hour).Unix(), ck.Expires.Unix())
		assert.Equal(t, ck.Name == LegacyUserIDName, ck.HttpOnly)
		next.AddCookie(ck)
	}

	creds := jar.Credentials(next)
	assert.Equal(t, "12", creds.LegacyUserID)

	var decoded entity.LegacyUserInfo
	require.NoError(t, json.Unmarshal([]byte(creds.LegacyUserInfo), &decoded))
	assert.Equal(t, info, decoded)
}

func TestJar_ClearAllExpiresEveryChannel(t *testing.T) {
	jar := newTestJar()
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), rec)

	jar.ClearAll(c)

	names := map[string]bool{}
	for _, ck := range rec.Result().Cookies() {
		names[ck.Name] = true
		assert.Empty(t, ck.Value)
		assert.True(t, ck.MaxAge < 0)
	}
	assert.Equal(t, map[string]bool{
		"bazaar.session-token": true,
		"bazaar.bearer":        true,
		"userId":               true,
		"userInfo":             true,
	}, names)
}
