//go:build !devauth

package devauth

import (
	"log/slog"

	"bazaar/config"
	"bazaar/internal/domain/entity"
	"bazaar/internal/domain/service"
)

// Enabled reports whether the bypass is compiled into this binary.
const Enabled = false

type resolver struct{}

func NewResolver(_ *config.Config, _ *slog.Logger) (service.DevIdentityResolver, error) {
	return resolver{}, nil
}

func (resolver) Resolve(string) (*entity.ProviderIdentity, bool) {
	return nil, false
}
