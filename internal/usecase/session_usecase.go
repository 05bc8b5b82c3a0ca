package usecase

import (
	"context"
	"time"

	"bazaar/internal/domain/entity"
)

// Credentials are the raw, unverified session inputs found on one request.
type Credentials struct {
	SessionToken   string // platform session cookie
	BearerToken    string // Authorization header, else bearer cookie
	LegacyUserID   string // legacy userId cookie
	LegacyUserInfo string // legacy userInfo cookie (JSON)
}

// IsEmpty reports whether no credential of any kind was presented.
func (c Credentials) IsEmpty() bool {
	return c.SessionToken == "" && c.BearerToken == "" && c.LegacyUserID == "" && c.LegacyUserInfo == ""
}

// SessionOutput describes a newly started platform session.
type SessionOutput struct {
	SessionToken string
	ExpiresAt    time.Time
	User         *entity.CurrentUser
}

// SessionUsecase merges every session channel into one CurrentUser view.
type SessionUsecase interface {
	// Resolve applies the precedence platform session > bearer > legacy.
	// A nil user with a nil error means guest.
	Resolve(ctx context.Context, creds Credentials) (*entity.CurrentUser, error)

	// Adopt converts a valid bearer token into a platform session.
	Adopt(ctx context.Context, bearerToken string) (*SessionOutput, error)

	// StartSession creates a platform session for a user resolved by a provider sign-in.
	StartSession(ctx context.Context, user *entity.User, provider entity.ProviderType) (*SessionOutput, error)

	// Logout ends whichever server-side session exists. Cookies are cleared by the caller.
	Logout(ctx context.Context, creds Credentials) error
}

// OAuthSignInOutput is returned when a redirect-based sign-in completes.
type OAuthSignInOutput struct {
	Session     *SessionOutput
	CallbackURL string
}

// OAuthUsecase drives database-backed sign-in through redirect providers.
type OAuthUsecase interface {
	StartSignIn(ctx context.Context, provider entity.ProviderType, callbackURL string) (string, error)
	CompleteSignIn(ctx context.Context, provider entity.ProviderType, code, state string) (*OAuthSignInOutput, error)
}
