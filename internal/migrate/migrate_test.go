package migrate

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/fuel-tracker/migrations"
)

func TestSources_OrderedAndAnnotated(t *testing.T) {
	names, err := Sources()
	require.NoError(t, err)
	require.Equal(t, []string{"00001_users.sql", "00002_auth_limiter.sql", "00003_archives.sql"}, names)

	for _, n := range names {
		b, err := fs.ReadFile(migrations.FS, n)
		require.NoError(t, err)
		body := string(b)
		require.True(t, strings.Contains(body, "-- +goose Up"), n)
		require.True(t, strings.Contains(body, "-- +goose Down"), n)
	}
}

func TestArchivesReferenceUsers(t *testing.T) {
	b, err := fs.ReadFile(migrations.FS, "00003_archives.sql")
	require.NoError(t, err)
	require.Contains(t, string(b), "REFERENCES users (id)")
	require.Contains(t, string(b), "jsonb")
}
