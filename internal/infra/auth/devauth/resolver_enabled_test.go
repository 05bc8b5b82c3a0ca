//go:build devauth

package devauth

import (
	"io"
	"log/slog"
	"testing"

	"bazaar/config"
	"bazaar/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolver_MatchesTestTokens(t *testing.T) {
	cfg := &config.Config{}
	cfg.Env.Env = "development"

	r, err := NewResolver(cfg, newDiscardLogger())
	require.NoError(t, err)

	identity, ok := r.Resolve("dev-line-alice_w")
	require.True(t, ok)
	assert.Equal(t, entity.ProviderTypeLine, identity.Provider)
	assert.Equal(t, "dev-alice_w", identity.ProviderAccountID)
	assert.Equal(t, "Dev alice w", identity.Name)

	_, ok = r.Resolve("eyJhbGciOiJIUzI1NiJ9.real.token")
	assert.False(t, ok)

	_, ok = r.Resolve("dev-line-")
	assert.False(t, ok)
}

func TestResolver_RefusesProduction(t *testing.T) {
	cfg := &config.Config{}
	cfg.Env.Env = config.EnvProduction

	r, err := NewResolver(cfg, newDiscardLogger())
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrProductionBuild)
}
