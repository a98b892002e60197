package postgres

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/dukerupert/gallery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to GALLERY_TEST_DATABASE_URL or skips the test.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("GALLERY_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("GALLERY_TEST_DATABASE_URL not set, skipping postgres integration test")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(context.Background(), url, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Pool().Exec(context.Background(), "DELETE FROM photos")
		db.Close()
	})
	return db
}

func TestPhotoStore_SaveAndLoad(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := db.PhotoStore

	assert.True(t, store.Exists(ctx))

	photos := []*gallery.Photo{
		{ID: 1, Title: "Welcome", StorageType: gallery.StoragePlaceholder, UploadDate: "2025-01-01T00:00:00.000000Z"},
		{ID: 2, Filename: "b.jpg", Title: "B", StorageType: gallery.StorageRemote,
			RemoteURL: "https://cdn/b.jpg", RemoteID: "gallery/b", ImageURL: "https://cdn/b.jpg",
			UploadDate: "2025-01-02T00:00:00.000000Z"},
	}
	require.NoError(t, store.Save(ctx, photos))
	assert.Equal(t, photos, store.Load(ctx))
	assert.Equal(t, 3, store.NextID(ctx))

	require.NoError(t, store.Save(ctx, photos[:1]))
	assert.Equal(t, photos[:1], store.Load(ctx))
}

func TestPhotoStore_SaveDuplicateIDs(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.PhotoStore.Save(ctx, []*gallery.Photo{
		{ID: 7, StorageType: gallery.StoragePlaceholder},
		{ID: 7, StorageType: gallery.StoragePlaceholder},
	})
	assert.Equal(t, gallery.EPERSIST, gallery.ErrorCode(err))
}
