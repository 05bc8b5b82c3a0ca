package entity

import (
	"time"
)

// ProviderLink joins a (provider, providerAccountId) pair to exactly one User.
// The pair is unique for the lifetime of the system.
type ProviderLink struct {
	ID                int64        // The unique ID for this link record itself.
	UserID            int64        // Owning User.
	Provider          ProviderType // Identity source, e.g. "line", "wechat".
	ProviderAccountID string       // Stable subject id reported by the provider (sub, openid, ...).
	AccessArtifact    *string      // Opaque provider access artifact, stored but never parsed.
	PasswordHash      string       // bcrypt hash, only for ProviderTypeCredentials.
	CreatedAt         time.Time    // When the link was first created.
}

// ProviderIdentity is what a provider gateway reports after a successful verification.
type ProviderIdentity struct {
	Provider          ProviderType
	ProviderAccountID string
	Email             string
	Name              string
	Picture           string
	AccessArtifact    string
}

// Hints returns the optional profile fields used only when a new User is created.
func (i *ProviderIdentity) Hints() ProfileHints {
	return ProfileHints{
		Email:   i.Email,
		Name:    i.Name,
		Picture: i.Picture,
	}
}

// ProfileHints are first-write-wins profile fields offered to the ledger.
type ProfileHints struct {
	Email   string
	Name    string
	Picture string
}
