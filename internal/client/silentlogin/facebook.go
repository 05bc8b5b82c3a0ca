package silentlogin

import (
	"context"

	"bazaar/internal/domain/entity"
	"bazaar/internal/domain/environment"
	"bazaar/internal/errors"
)

const facebookRedirectGuardKey = "bazaar.facebook.signin-redirected"

// Navigator moves the page to another URL.
type Navigator interface {
	Navigate(url string) error
}

// SignInURLBuilder returns the server route that starts a provider redirect.
type SignInURLBuilder interface {
	SignInURL(provider entity.ProviderType, callbackURL string) string
}

// FacebookDriver hands off to the database-backed OAuth sign-in. It never exchanges tokens itself.
type FacebookDriver struct {
	signIn      SignInURLBuilder
	navigator   Navigator
	sessions    Sessions
	visit       KeyValueStore
	callbackURL string
}

type FacebookDriverParams struct {
	SignIn      SignInURLBuilder
	Navigator   Navigator
	Sessions    Sessions
	Visit       KeyValueStore
	CallbackURL string
}

func NewFacebookDriver(params FacebookDriverParams) *FacebookDriver {
	return &FacebookDriver{
		signIn:      params.SignIn,
		navigator:   params.Navigator,
		sessions:    params.Sessions,
		visit:       params.Visit,
		callbackURL: params.CallbackURL,
	}
}

func (d *FacebookDriver) Name() string { return "facebook" }

func (d *FacebookDriver) Enabled(signals environment.Signals) bool {
	return environment.Detect(signals) == environment.FacebookWebview
}

func (d *FacebookDriver) Run(_ context.Context) error {
	if d.sessions.IsLoggedIn() {
		return ErrSessionExists
	}

	if _, redirected := d.visit.Get(facebookRedirectGuardKey); redirected {
		return ErrNoCredential
	}
	d.visit.Set(facebookRedirectGuardKey, "1")

	if err := d.navigator.Navigate(d.signIn.SignInURL(entity.ProviderTypeFacebook, d.callbackURL)); err != nil {
		return errors.Wrap(err, "facebook sign-in redirect")
	}

	return ErrRedirected
}
