// Package facebook runs the database-backed OAuth sign-in for Facebook.
package facebook

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"bazaar/config"
	"bazaar/internal/domain/entity"
	"bazaar/internal/domain/service"
	"bazaar/internal/errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

const stateTTL = 10 * time.Minute

type graphUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

type pendingState struct {
	callbackURL string
	expiresAt   time.Time
}

// OAuthProvider handles the Facebook authorization code flow with CSRF state tracking.
type OAuthProvider struct {
	oauthConfig *oauth2.Config
	graphURL    string
	httpClient  *http.Client
	logger      *slog.Logger
	now         func() time.Time

	stateMutex sync.Mutex
	stateStore map[string]pendingState
}

func NewOAuthProvider(cfg *config.Config, logger *slog.Logger) service.OAuthProvider {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Facebook.ClientID,
		ClientSecret: cfg.Facebook.ClientSecret,
		RedirectURL:  cfg.Facebook.RedirectURL,
		Endpoint:     facebook.Endpoint,
		Scopes:       []string{"public_profile", "email"},
	}

	return newOAuthProvider(oauthConfig, cfg.Facebook.GraphURL, &http.Client{Timeout: cfg.Providers.HTTPTimeout}, logger, time.Now)
}

func newOAuthProvider(oauthConfig *oauth2.Config, graphURL string, httpClient *http.Client, logger *slog.Logger, now func() time.Time) *OAuthProvider {
	return &OAuthProvider{
		oauthConfig: oauthConfig,
		graphURL:    strings.TrimRight(graphURL, "/"),
		httpClient:  httpClient,
		logger:      logger,
		now:         now,
		stateStore:  make(map[string]pendingState),
	}
}

func (p *OAuthProvider) Provider() entity.ProviderType {
	return entity.ProviderTypeFacebook
}

// AuthCodeURL records a new state bound to callbackURL and returns the Facebook dialog URL.
func (p *OAuthProvider) AuthCodeURL(callbackURL string) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", err
	}

	p.stateMutex.Lock()
	p.cleanupExpiredStates()
	p.stateStore[state] = pendingState{callbackURL: callbackURL, expiresAt: p.now().Add(stateTTL)}
	p.stateMutex.Unlock()

	return p.oauthConfig.AuthCodeURL(state), nil
}

// ConsumeState validates a state once. Used or expired states are removed.
func (p *OAuthProvider) ConsumeState(state string) (string, bool) {
	p.stateMutex.Lock()
	defer p.stateMutex.Unlock()

	pending, exists := p.stateStore[state]
	if !exists {
		return "", false
	}
	delete(p.stateStore, state)

	if p.now().After(pending.expiresAt) {
		return "", false
	}

	return pending.callbackURL, true
}

// Exchange trades the code for a token and loads the Graph profile.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*entity.ProviderIdentity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, &service.ProviderRejectedError{
				Provider:   entity.ProviderTypeFacebook,
				StatusCode: retrieveErr.Response.StatusCode,
				Raw:        string(retrieveErr.Body),
			}
		}

		return nil, errors.Wrap(err, "facebook code exchange failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.graphURL+"/me?fields=id,name,email,picture", nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create graph request")
	}

	resp, err := p.oauthConfig.Client(ctx, token).Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "graph request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

		return nil, &service.ProviderRejectedError{
			Provider:   entity.ProviderTypeFacebook,
			StatusCode: resp.StatusCode,
			Raw:        string(body),
		}
	}

	var user graphUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, errors.Wrap(err, "failed to decode graph profile")
	}

	if user.ID == "" {
		return nil, errors.New("graph profile without id")
	}

	p.logger.Debug("Facebook profile loaded", slog.String("facebook_id", user.ID))

	return &entity.ProviderIdentity{
		Provider:          entity.ProviderTypeFacebook,
		ProviderAccountID: user.ID,
		Email:             user.Email,
		Name:              user.Name,
		Picture:           user.Picture.Data.URL,
		AccessArtifact:    token.AccessToken,
	}, nil
}

// cleanupExpiredStates must be called with stateMutex held.
func (p *OAuthProvider) cleanupExpiredStates() {
	now := p.now()
	for state, pending := range p.stateStore {
		if now.After(pending.expiresAt) {
			delete(p.stateStore, state)
		}
	}
}

func generateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate oauth state")
	}

	return hex.EncodeToString(buf), nil
}
