package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/habedi/folio/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRepo(t *testing.T) db.EntryRepository {
	t.Helper()
	gormDB, err := db.Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gormDB) })
	return db.NewEntryRepository(gormDB)
}

func TestEntryRepositoryPutGetDelete(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	// Initially empty
	entry, err := repo.Get(ctx, "access_token")
	require.NoError(t, err)
	require.Nil(t, entry)

	expires := time.Now().Add(15 * time.Minute).UTC()
	require.NoError(t, repo.Put(ctx, db.Entry{Name: "access_token", Value: "a1", ExpiresAt: expires}))

	entry, err = repo.Get(ctx, "access_token")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "a1", entry.Value)
	assert.WithinDuration(t, expires, entry.ExpiresAt, time.Second)

	// Put on an existing name overwrites it
	require.NoError(t, repo.Put(ctx, db.Entry{Name: "access_token", Value: "a2", ExpiresAt: expires}))
	entry, err = repo.Get(ctx, "access_token")
	require.NoError(t, err)
	assert.Equal(t, "a2", entry.Value)

	require.NoError(t, repo.Delete(ctx, "access_token"))
	entry, err = repo.Get(ctx, "access_token")
	require.NoError(t, err)
	assert.Nil(t, entry)

	// Deleting a missing entry is fine
	assert.NoError(t, repo.Delete(ctx, "access_token"))
}

func TestEntryRepositoryPurgeExpired(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Put(ctx, db.Entry{Name: "stale", Value: "x", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, repo.Put(ctx, db.Entry{Name: "fresh", Value: "y", ExpiresAt: now.Add(time.Hour)}))

	purged, err := repo.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	stale, err := repo.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, stale)

	fresh, err := repo.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, fresh)
}

func TestEntryRepository_NilDB(t *testing.T) {
	repo := db.NewEntryRepository(nil)
	ctx := context.Background()

	_, err := repo.Get(ctx, "x")
	assert.Error(t, err)
	assert.Error(t, repo.Put(ctx, db.Entry{Name: "x"}))
	assert.Error(t, repo.Delete(ctx, "x"))
	_, err = repo.PurgeExpired(ctx, time.Now())
	assert.Error(t, err)
}

func TestEntry_Expired(t *testing.T) {
	now := time.Now()
	assert.True(t, db.Entry{ExpiresAt: now.Add(-time.Second)}.Expired(now))
	assert.True(t, db.Entry{ExpiresAt: now}.Expired(now))
	assert.False(t, db.Entry{ExpiresAt: now.Add(time.Second)}.Expired(now))
	assert.False(t, db.Entry{}.Expired(now), "zero expiry never expires")
}
