//go:build !devauth

package devauth

import (
	"io"
	"log/slog"
	"testing"

	"bazaar/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_DefaultBuildNeverMatches(t *testing.T) {
	cfg := &config.Config{}
	cfg.Env.Env = "development"

	r, err := NewResolver(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	identity, ok := r.Resolve("dev-line-alice")
	assert.False(t, ok)
	assert.Nil(t, identity)
	assert.False(t, Enabled)
}
