package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/gallery"
	"github.com/dukerupert/gallery/jsonfile"
	"github.com/dukerupert/gallery/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminPassword = "admin123"

// memoryStore wires a mock.PhotoStore to an in-memory collection.
type memoryStore struct {
	mu      sync.Mutex
	photos  []*gallery.Photo
	saves   int
	saveErr error

	// failedReads makes that many Read calls fail before the store recovers.
	failedReads int
}

func (m *memoryStore) mock() *mock.PhotoStore {
	return &mock.PhotoStore{
		LoadFn: func(ctx context.Context) []*gallery.Photo {
			m.mu.Lock()
			defer m.mu.Unlock()
			return append([]*gallery.Photo{}, m.photos...)
		},
		ReadFn: func(ctx context.Context) ([]*gallery.Photo, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.failedReads > 0 {
				m.failedReads--
				return nil, gallery.StoreRead("Failed to read photo metadata", errors.New("connection reset"))
			}
			return append([]*gallery.Photo{}, m.photos...), nil
		},
		SaveFn: func(ctx context.Context, photos []*gallery.Photo) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.saves++
			if m.saveErr != nil {
				return gallery.PersistFailed("Failed to save photo metadata", m.saveErr)
			}
			m.photos = append([]*gallery.Photo{}, photos...)
			return nil
		},
	}
}

// recordingBackend counts calls made to a mock.ImageBackend.
type recordingBackend struct {
	mu         sync.Mutex
	uploads    []string
	destroyed  []string
	uploadErr  error
	destroyErr error
}

func (r *recordingBackend) mock(configured bool) *mock.ImageBackend {
	return &mock.ImageBackend{
		Configured: configured,
		UploadFn: func(ctx context.Context, data []byte, folder, id string) (*gallery.UploadResult, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.uploads = append(r.uploads, id)
			if r.uploadErr != nil {
				return nil, r.uploadErr
			}
			publicID := folder + "/" + id
			return &gallery.UploadResult{URL: "https://cdn.example.com/" + publicID + ".png", PublicID: publicID}, nil
		},
		DestroyFn: func(ctx context.Context, publicID string) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.destroyed = append(r.destroyed, publicID)
			return r.destroyErr
		},
	}
}

func pngDataURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newTestService(store *memoryStore, backend *mock.ImageBackend) *GalleryService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewGalleryService(store.mock(), backend, &mock.AdminVerifier{Password: adminPassword}, logger, Config{})
	svc.Now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	svc.NewID = func() string { return "uuid" }
	return svc
}

func TestUploadPhoto_Success(t *testing.T) {
	store := &memoryStore{}
	backend := &recordingBackend{}
	svc := newTestService(store, backend.mock(true))

	photo, err := svc.UploadPhoto(context.Background(), gallery.UploadRequest{
		AdminPassword: adminPassword,
		ImageData:     pngDataURI(t),
		Filename:      "sunset.beach.png",
		Title:         "Sunset",
		Description:   "Evening",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, photo.ID)
	assert.Equal(t, gallery.StorageRemote, photo.StorageType)
	assert.Equal(t, "photo_gallery/uuid_sunset", photo.RemoteID)
	assert.Equal(t, "https://cdn.example.com/photo_gallery/uuid_sunset.png", photo.RemoteURL)
	assert.Equal(t, photo.RemoteURL, photo.ImageURL)
	assert.Equal(t, "2025-03-01T12:00:00.000000Z", photo.UploadDate)
	assert.Equal(t, []string{"uuid_sunset"}, backend.uploads)
	assert.Empty(t, backend.destroyed)
	require.Len(t, store.photos, 1)
	assert.NoError(t, store.photos[0].Validate())
}

func TestUploadPhoto_Defaults(t *testing.T) {
	store := &memoryStore{}
	svc := newTestService(store, (&recordingBackend{}).mock(true))

	photo, err := svc.UploadPhoto(context.Background(), gallery.UploadRequest{
		AdminPassword: adminPassword,
		ImageData:     pngDataURI(t),
	})

	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", photo.Filename)
	assert.Equal(t, "Untitled", photo.Title)
	assert.Equal(t, "", photo.Description)
	assert.Equal(t, "photo_gallery/uuid_photo", photo.RemoteID)
}

func TestUploadPhoto_IDsUniqueAndIncreasing(t *testing.T) {
	store := &memoryStore{photos: []*gallery.Photo{
		{ID: 4, StorageType: gallery.StoragePlaceholder, UploadDate: "2025-01-01T00:00:00.000000Z"},
	}}
	svc := newTestService(store, (&recordingBackend{}).mock(true))
	svc.NewID = func() string { return fmt.Sprint(time.Now().UnixNano()) }
	data := pngDataURI(t)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.UploadPhoto(context.Background(), gallery.UploadRequest{
				AdminPassword: adminPassword,
				ImageData:     data,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, store.photos, n+1)
	seen := map[int]bool{}
	for i, p := range store.photos {
		assert.False(t, seen[p.ID], "duplicate id %d", p.ID)
		seen[p.ID] = true
		if i > 0 {
			assert.Greater(t, p.ID, store.photos[i-1].ID)
		}
	}
	assert.Equal(t, 4+n, store.photos[n].ID)
}

func TestUploadPhoto_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		configured bool
		req        func(t *testing.T) gallery.UploadRequest
		wantCode   string
	}{
		{
			name:       "wrong password",
			configured: true,
			req: func(t *testing.T) gallery.UploadRequest {
				return gallery.UploadRequest{AdminPassword: "nope", ImageData: pngDataURI(t)}
			},
			wantCode: gallery.EUNAUTHORIZED,
		},
		{
			name:       "missing password",
			configured: true,
			req: func(t *testing.T) gallery.UploadRequest {
				return gallery.UploadRequest{ImageData: pngDataURI(t)}
			},
			wantCode: gallery.EUNAUTHORIZED,
		},
		{
			name:       "missing image data",
			configured: true,
			req: func(t *testing.T) gallery.UploadRequest {
				return gallery.UploadRequest{AdminPassword: adminPassword, ImageData: "  "}
			},
			wantCode: gallery.EINVALID,
		},
		{
			name:       "not an image",
			configured: true,
			req: func(t *testing.T) gallery.UploadRequest {
				return gallery.UploadRequest{
					AdminPassword: adminPassword,
					ImageData:     base64.StdEncoding.EncodeToString([]byte("plain text, not pixels")),
				}
			},
			wantCode: gallery.EINVALID,
		},
		{
			name:       "backend not configured",
			configured: false,
			req: func(t *testing.T) gallery.UploadRequest {
				return gallery.UploadRequest{AdminPassword: adminPassword, ImageData: pngDataURI(t)}
			},
			wantCode: gallery.EUNAVAILABLE,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryStore{}
			backend := &recordingBackend{}
			svc := newTestService(store, backend.mock(tt.configured))

			photo, err := svc.UploadPhoto(context.Background(), tt.req(t))

			assert.Nil(t, photo)
			assert.Equal(t, tt.wantCode, gallery.ErrorCode(err))
			assert.Empty(t, backend.uploads)
			assert.Empty(t, backend.destroyed)
			assert.Zero(t, store.saves)
		})
	}
}

func TestUploadPhoto_RemoteFailure(t *testing.T) {
	store := &memoryStore{}
	backend := &recordingBackend{uploadErr: errors.New("502 from provider")}
	svc := newTestService(store, backend.mock(true))

	_, err := svc.UploadPhoto(context.Background(), gallery.UploadRequest{
		AdminPassword: adminPassword,
		ImageData:     pngDataURI(t),
	})

	assert.Equal(t, gallery.EUPLOAD, gallery.ErrorCode(err))
	assert.Len(t, backend.uploads, 1)
	assert.Empty(t, backend.destroyed)
	assert.Zero(t, store.saves)
}

func TestUploadPhoto_SaveFailureCompensates(t *testing.T) {
	existing := []*gallery.Photo{
		{ID: 1, StorageType: gallery.StoragePlaceholder, UploadDate: "2025-01-01T00:00:00.000000Z"},
	}

	for _, destroyErr := range []error{nil, errors.New("destroy failed")} {
		t.Run(fmt.Sprintf("destroy error %v", destroyErr), func(t *testing.T) {
			store := &memoryStore{photos: existing, saveErr: errors.New("disk full")}
			backend := &recordingBackend{destroyErr: destroyErr}
			svc := newTestService(store, backend.mock(true))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			photo, err := svc.UploadPhoto(ctx, gallery.UploadRequest{
				AdminPassword: adminPassword,
				ImageData:     pngDataURI(t),
				Filename:      "cat.png",
			})

			assert.Nil(t, photo)
			assert.Equal(t, gallery.EPERSIST, gallery.ErrorCode(err))
			assert.Equal(t, []string{"photo_gallery/uuid_cat"}, backend.destroyed)
			assert.Equal(t, existing, store.photos)
		})
	}
}

func TestUploadPhoto_UnreadableStoreIsNotOverwritten(t *testing.T) {
	existing := []*gallery.Photo{
		{ID: 1, StorageType: gallery.StoragePlaceholder, UploadDate: "2025-01-01T00:00:00.000000Z"},
		{ID: 2, StorageType: gallery.StoragePlaceholder, UploadDate: "2025-01-02T00:00:00.000000Z"},
	}
	store := &memoryStore{photos: existing, failedReads: 1}
	backend := &recordingBackend{}
	svc := newTestService(store, backend.mock(true))

	photo, err := svc.UploadPhoto(context.Background(), gallery.UploadRequest{
		AdminPassword: adminPassword,
		ImageData:     pngDataURI(t),
		Filename:      "cat.png",
	})

	assert.Nil(t, photo)
	assert.Equal(t, gallery.EPERSIST, gallery.ErrorCode(err))
	assert.Equal(t, []string{"photo_gallery/uuid_cat"}, backend.destroyed)
	assert.Zero(t, store.saves)
	assert.Equal(t, existing, store.photos)

	// Once the store reads again the next upload appends normally
	photo, err = svc.UploadPhoto(context.Background(), gallery.UploadRequest{
		AdminPassword: adminPassword,
		ImageData:     pngDataURI(t),
		Filename:      "cat.png",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, photo.ID)
	assert.Len(t, store.photos, 3)
}

func TestListPhotos_NewestFirst(t *testing.T) {
	store := &memoryStore{photos: []*gallery.Photo{
		{ID: 1, UploadDate: "2025-01-01T00:00:00.000000Z"},
		{ID: 2, UploadDate: "2025-03-01T00:00:00.000000Z"},
		{ID: 3, UploadDate: "2025-02-01T00:00:00.000000Z"},
	}}
	svc := newTestService(store, (&recordingBackend{}).mock(true))

	list, err := svc.ListPhotos(context.Background())

	require.NoError(t, err)
	require.Len(t, list.Photos, 3)
	assert.Equal(t, []int{2, 3, 1}, []int{list.Photos[0].ID, list.Photos[1].ID, list.Photos[2].ID})
	assert.Equal(t, 3, list.TotalCount)
	assert.Equal(t, gallery.ProviderCloudinary, list.StorageType)
}

func TestGalleryService_FileWithNullRecord(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "photos_data.json")
	content := `[{"id": 1, "title": "Beach", "storageType": "remote", "remoteUrl": "https://cdn/a.png",
		"remoteId": "photo_gallery/a", "uploadDate": "2025-01-01T00:00:00.000000Z"}, null]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := &recordingBackend{}
	svc := NewGalleryService(jsonfile.NewStore(path, logger), backend.mock(true),
		&mock.AdminVerifier{Password: adminPassword}, logger, Config{})

	list, err := svc.ListPhotos(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, list.TotalCount)

	img, err := svc.FindPhotoImage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a.png", img.RedirectURL)

	photo, err := svc.UploadPhoto(ctx, gallery.UploadRequest{AdminPassword: adminPassword, ImageData: pngDataURI(t)})
	require.NoError(t, err)
	assert.Equal(t, 2, photo.ID)

	require.NoError(t, svc.DeletePhoto(ctx, adminPassword, 1))
	assert.Equal(t, []string{"photo_gallery/a"}, backend.destroyed)
}

func TestListPhotos_EmptyAndUnconfigured(t *testing.T) {
	svc := newTestService(&memoryStore{}, (&recordingBackend{}).mock(false))

	list, err := svc.ListPhotos(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, list.Photos)
	assert.Zero(t, list.TotalCount)
	assert.Equal(t, gallery.StorageSummaryFallback, list.StorageType)
}

func TestFindPhotoImage(t *testing.T) {
	inline := pngDataURI(t)
	store := &memoryStore{photos: []*gallery.Photo{
		{ID: 1, StorageType: gallery.StorageRemote, RemoteURL: "https://cdn/x.png", RemoteID: "x"},
		{ID: 2, StorageType: gallery.StorageInlineFallback, InlineData: inline},
		{ID: 3, StorageType: gallery.StoragePlaceholder, ImageURL: PlaceholderImageURL},
		{ID: 4, StorageType: gallery.StorageInlineFallback, InlineData: "%%%"},
	}}
	svc := newTestService(store, (&recordingBackend{}).mock(true))
	ctx := context.Background()

	img, err := svc.FindPhotoImage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/x.png", img.RedirectURL)

	img, err = svc.FindPhotoImage(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, img.RedirectURL)
	assert.Equal(t, "image/png", img.ContentType)
	assert.NotEmpty(t, img.Data)

	_, err = svc.FindPhotoImage(ctx, 3)
	assert.Equal(t, gallery.ENOTFOUND, gallery.ErrorCode(err))
	assert.Equal(t, "Image data not found", gallery.ErrorMessage(err))

	_, err = svc.FindPhotoImage(ctx, 4)
	assert.Equal(t, gallery.EINTERNAL, gallery.ErrorCode(err))

	_, err = svc.FindPhotoImage(ctx, 99)
	assert.Equal(t, gallery.ENOTFOUND, gallery.ErrorCode(err))
	assert.Equal(t, "Photo not found", gallery.ErrorMessage(err))
}

func TestDeletePhoto(t *testing.T) {
	seed := func() []*gallery.Photo {
		return []*gallery.Photo{
			{ID: 1, StorageType: gallery.StoragePlaceholder},
			{ID: 2, StorageType: gallery.StorageRemote, RemoteURL: "https://cdn/a.png", RemoteID: "photo_gallery/a"},
			{ID: 3, StorageType: gallery.StorageRemote, RemoteURL: "https://cdn/b.png", RemoteID: "photo_gallery/b"},
		}
	}

	t.Run("removes exactly one record and destroys remote object", func(t *testing.T) {
		store := &memoryStore{photos: seed()}
		backend := &recordingBackend{}
		svc := newTestService(store, backend.mock(true))

		require.NoError(t, svc.DeletePhoto(context.Background(), adminPassword, 2))

		require.Len(t, store.photos, 2)
		assert.Equal(t, 1, store.photos[0].ID)
		assert.Equal(t, 3, store.photos[1].ID)
		assert.Equal(t, []string{"photo_gallery/a"}, backend.destroyed)
	})

	t.Run("remote failure still removes record", func(t *testing.T) {
		store := &memoryStore{photos: seed()}
		backend := &recordingBackend{destroyErr: errors.New("timeout")}
		svc := newTestService(store, backend.mock(true))

		require.NoError(t, svc.DeletePhoto(context.Background(), adminPassword, 3))
		assert.Len(t, store.photos, 2)
	})

	t.Run("unconfigured backend skips destroy", func(t *testing.T) {
		store := &memoryStore{photos: seed()}
		backend := &recordingBackend{}
		svc := newTestService(store, backend.mock(false))

		require.NoError(t, svc.DeletePhoto(context.Background(), adminPassword, 2))
		assert.Empty(t, backend.destroyed)
		assert.Len(t, store.photos, 2)
	})

	t.Run("placeholder has nothing remote", func(t *testing.T) {
		store := &memoryStore{photos: seed()}
		backend := &recordingBackend{}
		svc := newTestService(store, backend.mock(true))

		require.NoError(t, svc.DeletePhoto(context.Background(), adminPassword, 1))
		assert.Empty(t, backend.destroyed)
	})

	t.Run("missing id is not found and does not save", func(t *testing.T) {
		store := &memoryStore{photos: seed()}
		svc := newTestService(store, (&recordingBackend{}).mock(true))

		err := svc.DeletePhoto(context.Background(), adminPassword, 42)

		assert.Equal(t, gallery.ENOTFOUND, gallery.ErrorCode(err))
		assert.Zero(t, store.saves)
	})

	t.Run("unauthorized", func(t *testing.T) {
		store := &memoryStore{photos: seed()}
		backend := &recordingBackend{}
		svc := newTestService(store, backend.mock(true))

		err := svc.DeletePhoto(context.Background(), "wrong", 2)

		assert.Equal(t, gallery.EUNAUTHORIZED, gallery.ErrorCode(err))
		assert.Zero(t, store.saves)
		assert.Empty(t, backend.destroyed)
	})

	t.Run("save failure", func(t *testing.T) {
		store := &memoryStore{photos: seed(), saveErr: errors.New("read-only fs")}
		svc := newTestService(store, (&recordingBackend{}).mock(true))

		err := svc.DeletePhoto(context.Background(), adminPassword, 2)

		assert.Equal(t, gallery.EPERSIST, gallery.ErrorCode(err))
		assert.Len(t, store.photos, 3)
	})

	t.Run("unreadable store", func(t *testing.T) {
		store := &memoryStore{photos: seed(), failedReads: 1}
		backend := &recordingBackend{}
		svc := newTestService(store, backend.mock(true))

		err := svc.DeletePhoto(context.Background(), adminPassword, 2)

		assert.Equal(t, gallery.EPERSIST, gallery.ErrorCode(err))
		assert.Zero(t, store.saves)
		assert.Empty(t, backend.destroyed)
		assert.Len(t, store.photos, 3)
	})
}

func TestVerifyAdmin(t *testing.T) {
	svc := newTestService(&memoryStore{}, (&recordingBackend{}).mock(true))

	status, err := svc.VerifyAdmin(context.Background(), adminPassword)
	require.NoError(t, err)
	assert.True(t, status.BackendConfigured)
	assert.Equal(t, gallery.ProviderCloudinary, status.StorageType)

	_, err = svc.VerifyAdmin(context.Background(), "guess")
	assert.Equal(t, gallery.EUNAUTHORIZED, gallery.ErrorCode(err))
	assert.Equal(t, "Invalid password", gallery.ErrorMessage(err))
}

func TestHealth(t *testing.T) {
	store := &memoryStore{photos: []*gallery.Photo{{ID: 1}}}
	svc := newTestService(store, (&recordingBackend{}).mock(false))

	h := svc.Health(context.Background())

	assert.Equal(t, "healthy", h.Status)
	assert.False(t, h.BackendConfigured)
	assert.Equal(t, gallery.StorageSummaryFallback, h.StorageType)
	assert.Equal(t, "mock", h.StoreProvider)
	assert.True(t, h.StoreExists)
	assert.Equal(t, 1, h.PhotosCount)
}

func TestSeedPlaceholder(t *testing.T) {
	store := &memoryStore{}
	svc := newTestService(store, (&recordingBackend{}).mock(false))

	seeded, err := svc.SeedPlaceholder(context.Background())
	require.NoError(t, err)
	assert.True(t, seeded)
	require.Len(t, store.photos, 1)
	assert.Equal(t, gallery.StoragePlaceholder, store.photos[0].StorageType)
	assert.NoError(t, store.photos[0].Validate())

	seeded, err = svc.SeedPlaceholder(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, 1, store.saves)
}

func TestSeedPlaceholder_UnreadableStore(t *testing.T) {
	store := &memoryStore{photos: []*gallery.Photo{{ID: 4}}, failedReads: 1}
	svc := newTestService(store, (&recordingBackend{}).mock(false))

	seeded, err := svc.SeedPlaceholder(context.Background())

	assert.False(t, seeded)
	assert.Equal(t, gallery.ESTOREREAD, gallery.ErrorCode(err))
	assert.Zero(t, store.saves)
	assert.Equal(t, 4, store.photos[0].ID)
}

func TestFileStem(t *testing.T) {
	tests := map[string]string{
		"photo.jpg":        "photo",
		"archive.tar.gz":   "archive",
		"../../etc/passwd": "passwd",
		".hidden":          "photo",
		"noext":            "noext",
	}
	for in, want := range tests {
		assert.Equal(t, want, fileStem(in), in)
	}
}
