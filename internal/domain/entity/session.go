package entity

import (
	"time"

	"github.com/google/uuid"
)

// PlatformSession is the database-backed sign-in created by OAuth callbacks and by
// adopting a bearer token. Its id travels inside a signed session cookie.
type PlatformSession struct {
	ID        uuid.UUID
	UserID    int64
	Provider  ProviderType
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the session has passed its expiry at now.
func (s *PlatformSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// BearerClaims is the verified content of a bearer token. Bearer tokens are never persisted.
type BearerClaims struct {
	UserID    int64
	Email     string
	Provider  ProviderType
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionClaims is the verified content of a platform session cookie.
type SessionClaims struct {
	SessionID uuid.UUID
	UserID    int64
	ExpiresAt time.Time
}

// LegacyUserInfo is the client-readable JSON summary stored in the legacy userInfo cookie.
type LegacyUserInfo struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
}
