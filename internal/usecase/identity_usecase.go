// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"bazaar/internal/domain/entity"
)

// ResolveResult is the outcome of an account ledger lookup.
type ResolveResult struct {
	User *entity.User
	// Created is true only for the call that inserted the link.
	Created bool
}

// AccountLedger maps provider identities to local users with find-or-create semantics.
type AccountLedger interface {
	// Resolve returns the user linked to (provider, providerAccountID), creating the user
	// and link on first sight. Concurrent calls for the same pair return the same user.
	Resolve(ctx context.Context, provider entity.ProviderType, providerAccountID string, hints entity.ProfileHints) (*ResolveResult, error)
}

// ExchangeOutput carries the bearer token minted for a verified provider credential.
type ExchangeOutput struct {
	Token   string
	User    *entity.User
	Created bool
}

// ExchangeUsecase trades provider credentials for application bearer tokens.
type ExchangeUsecase interface {
	ExchangeLine(ctx context.Context, idToken string) (*ExchangeOutput, error)
	ExchangeWeChat(ctx context.Context, code string) (*ExchangeOutput, error)
}
