package silentlogin

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"bazaar/internal/domain/environment"
	"bazaar/internal/errors"
)

const (
	liffStorePrefix      = "LIFF_STORE:"
	lineRedirectGuardKey = "bazaar.line.login-redirected"
)

// LiffSDK is the part of the LINE front-end SDK the driver uses.
type LiffSDK interface {
	Init(ctx context.Context, liffID string) error
	IsLoggedIn() bool
	// Login starts the platform redirect. The page navigates away on success.
	Login(redirectURI string) error
	GetIDToken() string
}

type LineDriver struct {
	sdk         LiffSDK
	liffID      string
	redirectURI string
	exchanger   Exchanger
	sessions    Sessions
	local       KeyValueStore
	visit       KeyValueStore
	now         func() time.Time
}

type LineDriverParams struct {
	SDK         LiffSDK
	LiffID      string
	RedirectURI string
	Exchanger   Exchanger
	Sessions    Sessions
	// Local is where the SDK caches its tokens; Visit is per-visit storage.
	Local KeyValueStore
	Visit KeyValueStore
}

func NewLineDriver(params LineDriverParams) *LineDriver {
	return &LineDriver{
		sdk:         params.SDK,
		liffID:      params.LiffID,
		redirectURI: params.RedirectURI,
		exchanger:   params.Exchanger,
		sessions:    params.Sessions,
		local:       params.Local,
		visit:       params.Visit,
		now:         time.Now,
	}
}

func (d *LineDriver) Name() string { return "line" }

func (d *LineDriver) Enabled(signals environment.Signals) bool {
	return environment.Detect(signals) == environment.LineInApp
}

func (d *LineDriver) Run(ctx context.Context) error {
	if d.sessions.IsLoggedIn() {
		return ErrSessionExists
	}

	if err := d.sdk.Init(ctx, d.liffID); err != nil {
		return errors.Wrap(err, "liff init")
	}

	if !d.sdk.IsLoggedIn() {
		if _, redirected := d.visit.Get(lineRedirectGuardKey); redirected {
			return ErrNoCredential
		}
		d.visit.Set(lineRedirectGuardKey, "1")

		if err := d.sdk.Login(d.redirectURI); err != nil {
			return errors.Wrap(err, "liff login")
		}

		return ErrRedirected
	}

	d.purgeExpiredTokenCache()

	idToken := d.sdk.GetIDToken()
	if idToken == "" {
		return ErrNoCredential
	}

	bearer, err := d.exchanger.ExchangeLine(ctx, idToken)
	if err != nil {
		return errors.Wrap(err, "line exchange")
	}

	if d.sessions.IsLoggedIn() {
		return ErrSessionExists
	}

	if _, err := d.sessions.Adopt(ctx, bearer); err != nil {
		return errors.Wrap(err, "adopt line session")
	}

	return nil
}

// purgeExpiredTokenCache drops every SDK-owned key once the cached decoded ID token has
// expired, so the SDK does not hand out a stale token. Unreadable entries are ignored.
func (d *LineDriver) purgeExpiredTokenCache() {
	raw, ok := d.local.Get(liffStorePrefix + d.liffID + ":decodedIDToken")
	if !ok {
		return
	}

	var decoded struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil || decoded.Exp == 0 {
		return
	}

	if time.Unix(decoded.Exp, 0).After(d.now()) {
		return
	}

	for _, key := range d.local.Keys() {
		if strings.HasPrefix(key, liffStorePrefix) {
			d.local.Delete(key)
		}
	}
}
