package service

import (
	"errors"
	"time"

	"bazaar/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	// ErrTokenInvalid covers bad signatures, wrong token kinds and malformed input.
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrTokenExpired is returned for a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("token has expired")
)

// TokenService mints and verifies the application's own signed tokens.
// Verification checks signature, kind and expiry only; there is no revocation list.
type TokenService interface {
	// IssueBearer mints a bearer token for the user with the configured 7-day lifetime.
	IssueBearer(userID int64, email string, provider entity.ProviderType) (string, error)

	// VerifyBearer returns the claims of a valid bearer token.
	VerifyBearer(token string) (*entity.BearerClaims, error)

	// IssueSession signs the cookie value of a platform session.
	IssueSession(sessionID uuid.UUID, userID int64, expiresAt time.Time) (string, error)

	// VerifySession returns the claims of a valid session cookie value.
	VerifySession(token string) (*entity.SessionClaims, error)

	// BearerTTL is the lifetime applied to new bearer tokens.
	BearerTTL() time.Duration
}
