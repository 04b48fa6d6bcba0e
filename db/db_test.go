package db_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/habedi/folio/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOpen creates the database file, including missing parent directories.
func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")

	gormDB, err := db.Open(path)
	require.NoError(t, err, "Open should not return an error")

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "Database file should exist")

	assert.True(t, gormDB.Migrator().HasTable(&db.Entry{}), "session_entries table should be migrated")
	assert.NoError(t, db.Close(gormDB), "Close should not return an error")
}

func TestOpen_InMemory(t *testing.T) {
	gormDB, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gormDB) })

	assert.True(t, gormDB.Migrator().HasTable("session_entries"))
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := db.Open("")
	assert.Error(t, err)
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, db.Close(nil), "Close(nil) should be a no-op")
}
