package silentlogin

import (
	"context"
	"net/url"

	"bazaar/internal/client/eventbus"
	"bazaar/internal/domain/environment"
	"bazaar/internal/errors"
)

const (
	// BearerStorageKey is where the bearer token from a code exchange is kept.
	BearerStorageKey = "bazaar.bearer"

	wechatCodeStorageKey = "bazaar.wechat.code"
	wechatCodeCookieName = "wechat_code"
)

// LocationUpdate is published whenever a signed-in visitor opens a mini-program page.
type LocationUpdate struct {
	UserID int64
	URL    string
	Code   string
}

type WeChatDriver struct {
	pageURL   string
	exchanger Exchanger
	sessions  Sessions
	local     KeyValueStore
	cookies   CookieStore
	locations *eventbus.Bus[LocationUpdate]
}

type WeChatDriverParams struct {
	PageURL   string
	Exchanger Exchanger
	Sessions  Sessions
	Local     KeyValueStore
	Cookies   CookieStore
	Locations *eventbus.Bus[LocationUpdate]
}

func NewWeChatDriver(params WeChatDriverParams) *WeChatDriver {
	return &WeChatDriver{
		pageURL:   params.PageURL,
		exchanger: params.Exchanger,
		sessions:  params.Sessions,
		local:     params.Local,
		cookies:   params.Cookies,
		locations: params.Locations,
	}
}

func (d *WeChatDriver) Name() string { return "wechat" }

func (d *WeChatDriver) Enabled(signals environment.Signals) bool {
	return environment.Detect(signals) == environment.WeChatMiniProgram
}

func (d *WeChatDriver) Run(ctx context.Context) error {
	code := d.resolveCode()

	if d.sessions.IsLoggedIn() {
		d.publishLocation(ctx, code)

		return ErrSessionExists
	}

	if code == "" {
		return ErrNoCredential
	}

	bearer, err := d.exchanger.ExchangeWeChat(ctx, code)
	if err != nil {
		return errors.Wrap(err, "wechat exchange")
	}
	d.local.Set(BearerStorageKey, bearer)

	if d.sessions.IsLoggedIn() {
		return ErrSessionExists
	}

	if _, err := d.sessions.Adopt(ctx, bearer); err != nil {
		return errors.Wrap(err, "adopt wechat session")
	}

	d.publishLocation(ctx, code)

	return nil
}

// Revisit records the page for a signed-in visitor on mounts after the first.
func (d *WeChatDriver) Revisit(ctx context.Context) error {
	if !d.sessions.IsLoggedIn() {
		return nil
	}
	d.publishLocation(ctx, d.resolveCode())

	return nil
}

// resolveCode prefers the URL, then local storage, then the shared cookie. A code
// found in the URL is cached for later pages that load without one.
func (d *WeChatDriver) resolveCode() string {
	if parsed, err := url.Parse(d.pageURL); err == nil {
		if code := parsed.Query().Get("code"); code != "" {
			d.local.Set(wechatCodeStorageKey, code)

			return code
		}
	}

	if code, ok := d.local.Get(wechatCodeStorageKey); ok && code != "" {
		return code
	}

	if code, ok := d.cookies.Get(wechatCodeCookieName); ok {
		return code
	}

	return ""
}

func (d *WeChatDriver) publishLocation(ctx context.Context, code string) {
	user := d.sessions.Current()
	if user == nil || d.locations == nil {
		return
	}

	// Subscribers log their own failures; location logging never affects sign-in.
	_ = d.locations.Publish(ctx, LocationUpdate{UserID: user.ID, URL: d.pageURL, Code: code})
}
