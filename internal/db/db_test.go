package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	conn, err := OpenFile(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	status, err := Status(conn)
	require.NoError(t, err)
	assert.True(t, status.Pending)
	assert.Equal(t, uint(1), status.LatestVersion)

	require.NoError(t, Migrate(conn))
	require.NoError(t, Migrate(conn), "second run is a no-op")

	status, err = Status(conn)
	require.NoError(t, err)
	assert.False(t, status.Pending)
	assert.False(t, status.Dirty)
	assert.Equal(t, uint(1), status.CurrentVersion)

	for _, table := range []string{"tasks", "sync_events"} {
		var n int
		require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
		assert.Zero(t, n)
	}
}

func TestOpenAndMigrate_UsesLintraHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("LINTRA_HOME", home)

	conn, err := OpenAndMigrate()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	assert.FileExists(t, filepath.Join(home, "db", "lintra.sqlite"))

	status, err := Status(conn)
	require.NoError(t, err)
	assert.False(t, status.Pending)
}
