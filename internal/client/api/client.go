// Package api is the Go client for the bazaar identity endpoints. It keeps cookies
// between calls the way a browser would, so a session adopted once is sent afterwards.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"bazaar/internal/domain/entity"
	"bazaar/internal/errors"
)

const defaultTimeout = 10 * time.Second

// APIError is a structured error answered by the server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bazaar api: %d %s: %s", e.Status, e.Code, e.Message)
}

// IsCode reports whether err is an APIError carrying code.
func IsCode(err error, code string) bool {
	var apiErr *APIError

	return errors.As(err, &apiErr) && apiErr.Code == code
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger

	mu     sync.RWMutex
	bearer string
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Its Jar is kept if set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithBearer sends token as an Authorization header on every request.
func WithBearer(token string) Option {
	return func(c *Client) { c.bearer = token }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid server url")
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.Errorf("server url must be absolute: %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	c := &Client{
		baseURL: parsed,
		http:    &http.Client{Timeout: defaultTimeout, Jar: jar},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		c.http.Jar = jar
	}

	return c, nil
}

// SetBearer changes the Authorization header used by later requests. Empty removes it.
func (c *Client) SetBearer(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bearer = token
}

type tokenResponse struct {
	Token string `json:"token"`
}

// ExchangeLine trades a LIFF ID token for a bearer token.
func (c *Client) ExchangeLine(ctx context.Context, idToken string) (string, error) {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/exchange/line", map[string]string{"idToken": idToken}, &out, false); err != nil {
		return "", err
	}

	return out.Token, nil
}

// ExchangeWeChat trades a mini-program login code for a bearer token.
func (c *Client) ExchangeWeChat(ctx context.Context, code string) (string, error) {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/exchange/wechat", map[string]string{"code": code}, &out, false); err != nil {
		return "", err
	}

	return out.Token, nil
}

// AdoptSession turns a bearer token into a platform session cookie held by the jar.
func (c *Client) AdoptSession(ctx context.Context, token string) (*entity.CurrentUser, error) {
	var out struct {
		User *entity.CurrentUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/session/adopt", map[string]string{"token": token}, &out, true); err != nil {
		return nil, err
	}

	return out.User, nil
}

// Me returns the merged current user, or nil for a guest.
func (c *Client) Me(ctx context.Context) (*entity.CurrentUser, error) {
	var out struct {
		User       *entity.CurrentUser `json:"user"`
		IsLoggedIn bool                `json:"isLoggedIn"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out, true); err != nil {
		return nil, err
	}
	if !out.IsLoggedIn {
		return nil, nil
	}

	return out.User, nil
}

// Logout ends the server session and drops the local bearer header.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, true); err != nil {
		return err
	}
	c.SetBearer("")

	return nil
}

// LogLocation records a mini-program page visit for the signed-in user.
func (c *Client) LogLocation(ctx context.Context, pageURL, code string) error {
	body := map[string]string{"url": pageURL, "code": code}

	return c.do(ctx, http.MethodPost, "/api/v1/location-logs", body, nil, true)
}

// SignInURL is where a redirect-based provider sign-in starts.
func (c *Client) SignInURL(provider entity.ProviderType, callbackURL string) string {
	u := c.baseURL.JoinPath("auth", "signin", provider.String())
	if callbackURL != "" {
		u.RawQuery = url.Values{"callbackUrl": {callbackURL}}.Encode()
	}

	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, enveloped bool) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return errors.WithStack(err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	c.mu.RUnlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	if enveloped {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return errors.Wrap(err, "failed to decode response envelope")
		}
		raw = envelope.Data
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}

	return nil
}

func decodeAPIError(status int, raw []byte) error {
	apiErr := &APIError{Status: status, Code: "http_error", Message: http.StatusText(status)}

	var body struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Details any    `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != nil {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
		apiErr.Details = body.Error.Details
	}

	return apiErr
}
