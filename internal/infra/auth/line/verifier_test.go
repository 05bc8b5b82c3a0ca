package line

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bazaar/config"
	"bazaar/internal/domain/entity"
	"bazaar/internal/domain/service"
	"bazaar/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAPIVerifier_VerifyIDToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "1657000000", r.PostForm.Get("client_id"))

		if r.PostForm.Get("id_token") != "good-token" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"invalid_request","error_description":"Invalid IdToken."}`)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"iss":"https://access.line.me","sub":"U4af4980629","aud":"1657000000","exp":1999999999,"iat":1700000000,"name":"Taro","picture":"https://profile.line-scdn.net/x","email":"taro@example.com"}`)
	}))
	defer server.Close()

	verifier := NewAPIVerifier("1657000000", server.URL, server.Client(), newDiscardLogger())

	identity, err := verifier.VerifyIDToken(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, entity.ProviderTypeLine, identity.Provider)
	assert.Equal(t, "U4af4980629", identity.ProviderAccountID)
	assert.Equal(t, "taro@example.com", identity.Email)
	assert.Equal(t, "Taro", identity.Name)

	identity, err = verifier.VerifyIDToken(context.Background(), "bad-token")
	assert.Nil(t, identity)

	var rejected *service.ProviderRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusBadRequest, rejected.StatusCode)
	assert.Contains(t, rejected.Raw, "Invalid IdToken.")
}

func TestAPIVerifier_MissingSubIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"iss":"https://access.line.me"}`)
	}))
	defer server.Close()

	verifier := NewAPIVerifier("c", server.URL, server.Client(), newDiscardLogger())

	_, err := verifier.VerifyIDToken(context.Background(), "token")

	var rejected *service.ProviderRejectedError
	assert.True(t, errors.As(err, &rejected))
}

func TestAPIVerifier_TimeoutIsBounded(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := &http.Client{Timeout: 50 * time.Millisecond}
	verifier := NewAPIVerifier("c", server.URL, client, newDiscardLogger())

	start := time.Now()
	_, err := verifier.VerifyIDToken(context.Background(), "token")

	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	var rejected *service.ProviderRejectedError
	assert.False(t, errors.As(err, &rejected))
}

func TestNewVerifier_SelectsMode(t *testing.T) {
	cfg := &config.Config{
		Line:      &config.LineConfig{ChannelID: "c", VerifyMode: "api", VerifyURL: "http://example.invalid"},
		Providers: &config.ProvidersConfig{HTTPTimeout: time.Second},
	}

	verifier, err := NewVerifier(cfg, newDiscardLogger())
	require.NoError(t, err)
	assert.IsType(t, &apiVerifier{}, verifier)

	cfg.Line.VerifyMode = "oidc"
	verifier, err = NewVerifier(cfg, newDiscardLogger())
	require.NoError(t, err)
	assert.IsType(t, &oidcVerifier{}, verifier)

	cfg.Line.VerifyMode = "magic"
	_, err = NewVerifier(cfg, newDiscardLogger())
	assert.Error(t, err)
}
