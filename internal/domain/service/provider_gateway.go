package service

import (
	"context"
	"fmt"

	"bazaar/internal/domain/entity"
)

// ProviderRejectedError is returned when a provider answered but refused the credential.
// Raw carries the provider's own error payload for diagnostics.
type ProviderRejectedError struct {
	Provider   entity.ProviderType
	StatusCode int
	Raw        string
}

func (e *ProviderRejectedError) Error() string {
	return fmt.Sprintf("%s rejected credential (status %d): %s", e.Provider, e.StatusCode, e.Raw)
}

// LineTokenVerifier verifies a LINE ID token and reports the stable subject.
type LineTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*entity.ProviderIdentity, error)
}

// WeChatCodeExchanger trades a one-time mini-program code for the user's openid.
type WeChatCodeExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*entity.ProviderIdentity, error)
}

// OAuthProvider runs a redirect-based authorization code flow.
type OAuthProvider interface {
	Provider() entity.ProviderType

	// AuthCodeURL stores a fresh CSRF state bound to callbackURL and returns the provider URL.
	AuthCodeURL(callbackURL string) (string, error)

	// ConsumeState validates and removes a state, returning the callback URL bound to it.
	ConsumeState(state string) (string, bool)

	// Exchange trades the authorization code for the provider identity.
	Exchange(ctx context.Context, code string) (*entity.ProviderIdentity, error)
}

// DevIdentityResolver maps development test tokens to canned identities.
// Production builds carry an implementation that never matches.
type DevIdentityResolver interface {
	Resolve(idToken string) (*entity.ProviderIdentity, bool)
}
