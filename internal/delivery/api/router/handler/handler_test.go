package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bazaar/config"
	"bazaar/internal/delivery/api/cookie"
	apimiddleware "bazaar/internal/delivery/api/middleware"
	"bazaar/internal/delivery/api/validator"
	"bazaar/internal/domain/entity"
	"bazaar/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Session: &config.SessionConfig{
			CookieDomain:      ".bazaar.test",
			SessionCookieName: "bazaar.session-token",
			BearerCookieName:  "bazaar.bearer",
			SessionTTL:        24 * time.Hour,
			LegacyTTL:         7 * 24 * time.Hour,
			SignInPath:        "/auth/signin",
		},
		Line: &config.LineConfig{LiffID: "1650000000-abcd"},
	}

	return cfg
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validator.New()
	e.HTTPErrorHandler = apimiddleware.NewErrorMiddleware(newDiscardLogger()).HandleHTTPError

	return e
}

// call runs h the way echo's router would, including the central error handler.
func call(e *echo.Echo, c echo.Context, h echo.HandlerFunc) {
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
}

func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	return e.NewContext(req, rec), rec
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}

	return out
}

// --- usecase mocks ---

type mockExchangeUC struct{ mock.Mock }

func (m *mockExchangeUC) ExchangeLine(ctx context.Context, idToken string) (*usecase.ExchangeOutput, error) {
	args := m.Called(ctx, idToken)
	out, _ := args.Get(0).(*usecase.ExchangeOutput)

	return out, args.Error(1)
}

func (m *mockExchangeUC) ExchangeWeChat(ctx context.Context, code string) (*usecase.ExchangeOutput, error) {
	args := m.Called(ctx, code)
	out, _ := args.Get(0).(*usecase.ExchangeOutput)

	return out, args.Error(1)
}

type mockSessionUC struct{ mock.Mock }

func (m *mockSessionUC) Resolve(ctx context.Context, creds usecase.Credentials) (*entity.CurrentUser, error) {
	args := m.Called(ctx, creds)
	out, _ := args.Get(0).(*entity.CurrentUser)

	return out, args.Error(1)
}

func (m *mockSessionUC) Adopt(ctx context.Context, token string) (*usecase.SessionOutput, error) {
	args := m.Called(ctx, token)
	out, _ := args.Get(0).(*usecase.SessionOutput)

	return out, args.Error(1)
}

func (m *mockSessionUC) StartSession(ctx context.Context, user *entity.User, provider entity.ProviderType) (*usecase.SessionOutput, error) {
	args := m.Called(ctx, user, provider)
	out, _ := args.Get(0).(*usecase.SessionOutput)

	return out, args.Error(1)
}

func (m *mockSessionUC) Logout(ctx context.Context, creds usecase.Credentials) error {
	return m.Called(ctx, creds).Error(0)
}

type mockLegacyAuthUC struct{ mock.Mock }

func (m *mockLegacyAuthUC) Register(ctx context.Context, input usecase.RegisterInput) (*entity.User, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*entity.User)

	return out, args.Error(1)
}

func (m *mockLegacyAuthUC) Login(ctx context.Context, input usecase.LoginInput) (*usecase.LegacyLoginOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*usecase.LegacyLoginOutput)

	return out, args.Error(1)
}

type mockOAuthUC struct{ mock.Mock }

func (m *mockOAuthUC) StartSignIn(ctx context.Context, provider entity.ProviderType, callbackURL string) (string, error) {
	args := m.Called(ctx, provider, callbackURL)

	return args.String(0), args.Error(1)
}

func (m *mockOAuthUC) CompleteSignIn(ctx context.Context, provider entity.ProviderType, code, state string) (*usecase.OAuthSignInOutput, error) {
	args := m.Called(ctx, provider, code, state)
	out, _ := args.Get(0).(*usecase.OAuthSignInOutput)

	return out, args.Error(1)
}

type mockLocationUC struct{ mock.Mock }

func (m *mockLocationUC) Record(ctx context.Context, userID int64, url, code string) (*entity.LocationLog, error) {
	args := m.Called(ctx, userID, url, code)
	out, _ := args.Get(0).(*entity.LocationLog)

	return out, args.Error(1)
}

func newTestJar() *cookie.Jar {
	return cookie.NewJar(newTestConfig())
}
