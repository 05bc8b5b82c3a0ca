package postgres

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFS_PairsUpAndDown(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected file in migrations: %s", name)
		}
	}

	assert.Equal(t, ups, downs)
}

func TestMigrationsFS_ProviderLinkUniqueIndex(t *testing.T) {
	content, err := fs.ReadFile(migrationsFS, "migrations/000001_identity.up.sql")
	require.NoError(t, err)

	assert.Contains(t, string(content), "CREATE UNIQUE INDEX IF NOT EXISTS idx_provider_links_provider_account")
	assert.Contains(t, string(content), "(provider, provider_account_id)")
}
