package facebook

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"bazaar/internal/domain/entity"
	"bazaar/internal/domain/service"
	"bazaar/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProvider(t *testing.T, now func() time.Time) (*OAuthProvider, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"message":"Invalid verification code format.","type":"OAuthException","code":100}}`)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"fb-access","token_type":"bearer","expires_in":5183944}`)
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer fb-access", r.Header.Get("Authorization"))
		assert.Equal(t, "id,name,email,picture", r.URL.Query().Get("fields"))
		_, _ = io.WriteString(w, `{"id":"10229","name":"Ana","email":"ana@example.com","picture":{"data":{"url":"https://pic/ana"}}}`)
	})

	server := httptest.NewServer(mux)

	oauthConfig := &oauth2.Config{
		ClientID:     "fb-client",
		ClientSecret: "fb-secret",
		RedirectURL:  "http://localhost/auth/callback/facebook",
		Endpoint: oauth2.Endpoint{
			AuthURL:   server.URL + "/dialog/oauth",
			TokenURL:  server.URL + "/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	return newOAuthProvider(oauthConfig, server.URL, server.Client(), newDiscardLogger(), now), server
}

func TestOAuthProvider_StateLifecycle(t *testing.T) {
	current := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	provider, server := newTestProvider(t, func() time.Time { return current })
	defer server.Close()

	authURL, err := provider.AuthCodeURL("/listings/42")
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)
	assert.Equal(t, "fb-client", parsed.Query().Get("client_id"))

	callbackURL, ok := provider.ConsumeState(state)
	assert.True(t, ok)
	assert.Equal(t, "/listings/42", callbackURL)

	_, ok = provider.ConsumeState(state)
	assert.False(t, ok, "state must be single use")

	authURL, err = provider.AuthCodeURL("/")
	require.NoError(t, err)
	parsed, _ = url.Parse(authURL)

	current = current.Add(stateTTL + time.Second)
	_, ok = provider.ConsumeState(parsed.Query().Get("state"))
	assert.False(t, ok, "expired state must be rejected")
}

func TestOAuthProvider_Exchange(t *testing.T) {
	provider, server := newTestProvider(t, time.Now)
	defer server.Close()

	identity, err := provider.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, entity.ProviderTypeFacebook, identity.Provider)
	assert.Equal(t, "10229", identity.ProviderAccountID)
	assert.Equal(t, "ana@example.com", identity.Email)
	assert.Equal(t, "https://pic/ana", identity.Picture)
	assert.Equal(t, "fb-access", identity.AccessArtifact)
}

func TestOAuthProvider_ExchangeRejected(t *testing.T) {
	provider, server := newTestProvider(t, time.Now)
	defer server.Close()

	identity, err := provider.Exchange(context.Background(), "bad-code")
	assert.Nil(t, identity)

	var rejected *service.ProviderRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusBadRequest, rejected.StatusCode)
	assert.Contains(t, rejected.Raw, "Invalid verification code format.")
}
