package accounts_test

import (
	"io/fs"
	"testing"

	"github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMigrationsFS(t *testing.T) {
	entries, err := fs.Glob(accounts.GetMigrationsFS(), "data/sql/migrations/*.sql")
	require.NoError(t, err)

	assert.Contains(t, entries, "data/sql/migrations/20250110120000_create_credentials.up.sql")
	assert.Contains(t, entries, "data/sql/migrations/20250110120100_create_profiles.up.sql")

	for _, name := range entries {
		content, err := fs.ReadFile(accounts.GetMigrationsFS(), name)
		require.NoError(t, err)
		assert.NotEmpty(t, content)
	}
}
