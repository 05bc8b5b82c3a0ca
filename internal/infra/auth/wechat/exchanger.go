// Package wechat exchanges mini-program login codes through code2session.
package wechat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"bazaar/config"
	"bazaar/internal/domain/entity"
	"bazaar/internal/domain/service"
	"bazaar/internal/errors"
)

const maxBody = 16 << 10

// code2SessionResponse is returned with HTTP 200 for both success and failure; errcode tells them apart.
type code2SessionResponse struct {
	OpenID     string `json:"openid"`
	SessionKey string `json:"session_key"`
	UnionID    string `json:"unionid"`
	ErrCode    int    `json:"errcode"`
	ErrMsg     string `json:"errmsg"`
}

type codeExchanger struct {
	appID      string
	appSecret  string
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewCodeExchanger(cfg *config.Config, logger *slog.Logger) service.WeChatCodeExchanger {
	return newCodeExchanger(
		cfg.WeChat.AppID,
		cfg.WeChat.AppSecret,
		cfg.WeChat.Code2SessionURL,
		&http.Client{Timeout: cfg.Providers.HTTPTimeout},
		logger,
	)
}

func newCodeExchanger(appID, appSecret, endpoint string, httpClient *http.Client, logger *slog.Logger) *codeExchanger {
	return &codeExchanger{
		appID:      appID,
		appSecret:  appSecret,
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     logger,
	}
}

// ExchangeCode trades a one-time code for the user's openid. The session key never leaves this package.
func (e *codeExchanger) ExchangeCode(ctx context.Context, code string) (*entity.ProviderIdentity, error) {
	endpoint, err := url.Parse(e.endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "invalid code2session url")
	}

	query := endpoint.Query()
	query.Set("appid", e.appID)
	query.Set("secret", e.appSecret)
	query.Set("js_code", code)
	query.Set("grant_type", "authorization_code")
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create code2session request")
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "code2session request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read code2session response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, e.reject(resp.StatusCode, string(body))
	}

	var payload code2SessionResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, e.reject(resp.StatusCode, string(body))
	}

	if payload.ErrCode != 0 || payload.OpenID == "" {
		return nil, e.reject(resp.StatusCode, fmt.Sprintf("errcode=%d errmsg=%s", payload.ErrCode, payload.ErrMsg))
	}

	return &entity.ProviderIdentity{
		Provider:          entity.ProviderTypeWeChat,
		ProviderAccountID: payload.OpenID,
	}, nil
}

func (e *codeExchanger) reject(status int, raw string) error {
	e.logger.Warn("WeChat rejected login code",
		slog.Int("status", status),
		slog.String("provider_error", raw),
	)

	return &service.ProviderRejectedError{
		Provider:   entity.ProviderTypeWeChat,
		StatusCode: status,
		Raw:        raw,
	}
}
