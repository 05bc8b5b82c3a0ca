package repository

import (
	"context"
	"errors"

	"bazaar/internal/domain/entity"
)

// ErrLinkNotFound is returned when no ProviderLink matches.
var ErrLinkNotFound = errors.New("provider link not found")

// ProviderLinkRepository persists (provider, providerAccountId) -> user mappings.
// The pair is unique in storage; that constraint is the only race guard for find-or-create.
type ProviderLinkRepository interface {
	// Create persists a new link. Returns ErrConflict when the pair is already linked.
	Create(ctx context.Context, link *entity.ProviderLink) error

	// Find retrieves the link for an exact provider account pair.
	Find(ctx context.Context, provider entity.ProviderType, providerAccountID string) (*entity.ProviderLink, error)

	// FindByUserAndProvider finds the link a user owns for one provider.
	FindByUserAndProvider(ctx context.Context, userID int64, provider entity.ProviderType) (*entity.ProviderLink, error)
}
