package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bazaar/config"
	deliverycontext "bazaar/internal/delivery/context"
	"bazaar/internal/domain/entity"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/domain/service"
	"bazaar/internal/infra/pubsub"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

type mockNotificationUC struct{ mock.Mock }

func (m *mockNotificationUC) EnsureWelcome(ctx context.Context, event *service.AccountLinkedEvent) (bool, error) {
	args := m.Called(ctx, event)

	return args.Bool(0), args.Error(1)
}

func (m *mockNotificationUC) List(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error) {
	args := m.Called(ctx, userID, limit)
	out, _ := args.Get(0).([]*entity.Notification)

	return out, args.Error(1)
}

func newTestPushHandler(uc *mockNotificationUC, cfg *config.Config, validate TokenValidator) *PushHandler {
	if cfg == nil {
		cfg = &config.Config{}
		cfg.Env.Env = config.EnvDevelopment
	}

	return NewPushHandler(PushHandlerParams{
		Config:         cfg,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		NotificationUC: uc,
		Validator:      validate,
	})
}

func pushBody(t *testing.T, event *service.AccountLinkedEvent, attributes map[string]string) string {
	t.Helper()

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var msg pubsub.PushMessage
	msg.Message.Data = base64.StdEncoding.EncodeToString(data)
	msg.Message.MessageID = "m-1"
	msg.Message.Attributes = attributes

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	return string(body)
}

func servePush(h *PushHandler, body string, header http.Header) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	_ = h.HandlePush(e.NewContext(req, rec))

	return rec
}

func TestPushHandler_EnsuresWelcome(t *testing.T) {
	uc := &mockNotificationUC{}
	uc.On("EnsureWelcome", mock.MatchedBy(func(ctx context.Context) bool {
		return deliverycontext.GetRequestIDFromContext(ctx) == "req-from-attr"
	}), mock.MatchedBy(func(event *service.AccountLinkedEvent) bool {
		return event.UserID == 3 && event.Provider == "line" && event.ProviderAccountID == "U3"
	})).Return(true, nil).Once()

	body := pushBody(t,
		&service.AccountLinkedEvent{UserID: 3, Provider: "line", ProviderAccountID: "U3", RequestID: "req-from-event"},
		map[string]string{"request_id": "req-from-attr"},
	)
	rec := servePush(newTestPushHandler(uc, nil, nil), body, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	uc.AssertExpectations(t)
}

func TestPushHandler_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "storage failure is retried", err: errors.New("connection reset"), wantStatus: http.StatusServiceUnavailable},
		{name: "missing user is dropped", err: domainerrors.ErrUserNotFound.WrapMessage("gone"), wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockNotificationUC{}
			uc.On("EnsureWelcome", mock.Anything, mock.Anything).Return(false, tt.err).Once()

			rec := servePush(newTestPushHandler(uc, nil, nil), pushBody(t, &service.AccountLinkedEvent{UserID: 9}, nil), nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestPushHandler_MalformedMessage(t *testing.T) {
	uc := &mockNotificationUC{}
	h := newTestPushHandler(uc, nil, nil)

	assert.Equal(t, http.StatusBadRequest, servePush(h, `{"message":{"data":"%%%"}}`, nil).Code)

	notJSON := base64.StdEncoding.EncodeToString([]byte("not json"))
	assert.Equal(t, http.StatusBadRequest, servePush(h, `{"message":{"data":"`+notJSON+`"}}`, nil).Code)
	uc.AssertNotCalled(t, "EnsureWelcome", mock.Anything, mock.Anything)
}

func TestPushHandler_VerifiesGooglePushTokens(t *testing.T) {
	cfg := &config.Config{PubSub: &config.PubSubConfig{Provider: pubsub.ProviderGoogle, PushAudience: "https://worker.bazaar.test/push"}}
	cfg.Env.Env = config.EnvProduction

	var gotAudience string
	validate := func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		gotAudience = audience
		if token != "google-signed" {
			return nil, errors.New("bad signature")
		}

		return &idtoken.Payload{Issuer: "https://accounts.google.com", Claims: map[string]any{"email_verified": true}}, nil
	}

	uc := &mockNotificationUC{}
	uc.On("EnsureWelcome", mock.Anything, mock.Anything).Return(false, nil).Once()
	h := newTestPushHandler(uc, cfg, validate)
	body := pushBody(t, &service.AccountLinkedEvent{UserID: 1}, nil)

	assert.Equal(t, http.StatusUnauthorized, servePush(h, body, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, servePush(h, body, http.Header{"Authorization": {"Bearer forged"}}).Code)
	assert.Equal(t, http.StatusOK, servePush(h, body, http.Header{"Authorization": {"Bearer google-signed"}}).Code)
	assert.Equal(t, "https://worker.bazaar.test/push", gotAudience)
	uc.AssertExpectations(t)
}
