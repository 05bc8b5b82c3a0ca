// Package silentlogin runs the per-platform drivers that sign a visitor in without a
// prompt when the hosting app already knows who they are.
package silentlogin

import (
	"context"

	"bazaar/internal/domain/entity"
	"bazaar/internal/domain/environment"
	"bazaar/internal/errors"
)

var (
	// ErrSessionExists means a CurrentUser already resolved, so the driver stood down.
	ErrSessionExists = errors.New("session already established")

	// ErrRedirected means the driver handed the page to a provider redirect.
	ErrRedirected = errors.New("redirected to provider sign-in")

	// ErrNoCredential means there was nothing to exchange.
	ErrNoCredential = errors.New("no platform credential available")
)

// Driver signs the visitor in for one hosting platform.
type Driver interface {
	Name() string
	Enabled(signals environment.Signals) bool
	Run(ctx context.Context) error
}

// Revisitor is implemented by drivers with work that repeats on every page load of a
// visit, after the one-time sign-in attempt has been made.
type Revisitor interface {
	Revisit(ctx context.Context) error
}

// Sessions is the client session store as seen by drivers.
type Sessions interface {
	IsLoggedIn() bool
	Current() *entity.CurrentUser
	Adopt(ctx context.Context, token string) (*entity.CurrentUser, error)
}

// Exchanger trades platform credentials for bearer tokens.
type Exchanger interface {
	ExchangeLine(ctx context.Context, idToken string) (string, error)
	ExchangeWeChat(ctx context.Context, code string) (string, error)
}
