// Package line verifies LINE ID tokens obtained by the LIFF SDK.
package line

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"bazaar/config"
	"bazaar/internal/domain/entity"
	"bazaar/internal/domain/service"
	"bazaar/internal/errors"
)

const (
	VerifyModeAPI  = "api"
	VerifyModeOIDC = "oidc"

	maxErrorBody = 4 << 10
)

// verifyResponse is the body of a successful call to the LINE verify endpoint.
type verifyResponse struct {
	Iss     string `json:"iss"`
	Sub     string `json:"sub"`
	Aud     string `json:"aud"`
	Exp     int64  `json:"exp"`
	Iat     int64  `json:"iat"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Email   string `json:"email"`
}

// apiVerifier delegates ID token verification to LINE's verify endpoint.
type apiVerifier struct {
	channelID  string
	verifyURL  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewVerifier picks the verification strategy configured by line.verifyMode.
func NewVerifier(cfg *config.Config, logger *slog.Logger) (service.LineTokenVerifier, error) {
	httpClient := &http.Client{Timeout: cfg.Providers.HTTPTimeout}

	switch strings.ToLower(cfg.Line.VerifyMode) {
	case "", VerifyModeAPI:
		return NewAPIVerifier(cfg.Line.ChannelID, cfg.Line.VerifyURL, httpClient, logger), nil
	case VerifyModeOIDC:
		return NewOIDCVerifier(cfg.Line.IssuerURL, cfg.Line.ChannelID, httpClient, logger), nil
	default:
		return nil, errors.Errorf("unknown line verify mode: %s", cfg.Line.VerifyMode)
	}
}

func NewAPIVerifier(channelID, verifyURL string, httpClient *http.Client, logger *slog.Logger) service.LineTokenVerifier {
	return &apiVerifier{
		channelID:  channelID,
		verifyURL:  verifyURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// VerifyIDToken posts the token and channel id to LINE. Any non-200 answer is a rejection.
func (v *apiVerifier) VerifyIDToken(ctx context.Context, idToken string) (*entity.ProviderIdentity, error) {
	form := url.Values{}
	form.Set("id_token", idToken)
	form.Set("client_id", v.channelID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create line verify request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "line verify request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		v.logger.Warn("LINE rejected ID token",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)

		return nil, &service.ProviderRejectedError{
			Provider:   entity.ProviderTypeLine,
			StatusCode: resp.StatusCode,
			Raw:        string(body),
		}
	}

	var payload verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode line verify response")
	}

	if payload.Sub == "" {
		return nil, &service.ProviderRejectedError{
			Provider:   entity.ProviderTypeLine,
			StatusCode: resp.StatusCode,
			Raw:        "verify response without sub",
		}
	}

	return &entity.ProviderIdentity{
		Provider:          entity.ProviderTypeLine,
		ProviderAccountID: payload.Sub,
		Email:             payload.Email,
		Name:              payload.Name,
		Picture:           payload.Picture,
	}, nil
}
