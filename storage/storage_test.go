package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/gallery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRemote is a probe-able backend with a configurable ping result.
type fakeRemote struct {
	Disabled
	pingErr  error
	pinged   bool
	deadline bool
	closed   bool
}

func (f *fakeRemote) IsConfigured() bool { return true }

func (f *fakeRemote) ping(ctx context.Context) error {
	f.pinged = true
	_, f.deadline = ctx.Deadline()
	return f.pingErr
}

func (f *fakeRemote) Close() error {
	f.closed = true
	return nil
}

func TestOpen_MissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  gallery.StorageConfig
		want string
	}{
		{
			name: "cloudinary default without secret",
			cfg:  gallery.StorageConfig{CloudinaryCloudName: "demo", CloudinaryAPIKey: "key"},
			want: gallery.ProviderCloudinary,
		},
		{
			name: "s3 without bucket",
			cfg:  gallery.StorageConfig{Provider: gallery.ProviderS3, S3AccessKey: "a", S3SecretKey: "b"},
			want: gallery.ProviderS3,
		},
		{
			name: "minio without endpoint",
			cfg: gallery.StorageConfig{Provider: gallery.ProviderMinio, MinioAccessKey: "a",
				MinioSecretKey: "b", MinioBucket: "photos"},
			want: gallery.ProviderMinio,
		},
		{
			name: "gcs without credentials file",
			cfg:  gallery.StorageConfig{Provider: gallery.ProviderGCS, GCSBucket: "photos"},
			want: gallery.ProviderGCS,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Open(context.Background(), discardLogger(), tt.cfg)

			assert.IsType(t, &Disabled{}, b)
			assert.False(t, b.IsConfigured())
			assert.Equal(t, tt.want, b.Provider())
			assert.Equal(t, gallery.StorageSummaryFallback, gallery.StorageSummary(b))
		})
	}
}

func TestOpen_UnsupportedProvider(t *testing.T) {
	b := Open(context.Background(), discardLogger(), gallery.StorageConfig{
		Provider:            "ftp",
		CloudinaryCloudName: "demo",
		CloudinaryAPIKey:    "key",
		CloudinaryAPISecret: "secret",
	})

	assert.False(t, b.IsConfigured())
}

func TestActivate(t *testing.T) {
	t.Run("probe success keeps backend", func(t *testing.T) {
		r := &fakeRemote{Disabled: Disabled{provider: "fake"}}

		b := activate(context.Background(), discardLogger(), r, time.Second)

		assert.Same(t, r, b)
		assert.True(t, r.pinged)
		assert.True(t, r.deadline)
		assert.Equal(t, "fake", gallery.StorageSummary(b))
	})

	t.Run("probe failure disables backend", func(t *testing.T) {
		r := &fakeRemote{Disabled: Disabled{provider: "fake"}, pingErr: errors.New("connection refused")}

		b := activate(context.Background(), discardLogger(), r, 0)

		assert.IsType(t, &Disabled{}, b)
		assert.False(t, b.IsConfigured())
		assert.Equal(t, "fake", b.Provider())
		assert.True(t, r.closed)
	})
}

func TestDisabled(t *testing.T) {
	d := NewDisabled(gallery.ProviderCloudinary)

	_, err := d.Upload(context.Background(), pngBytes, "f", "id")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, d.Destroy(context.Background(), "f/id"), ErrNotConfigured)
}

func TestObjectKey(t *testing.T) {
	key, contentType := objectKey(pngBytes, "photo_gallery", "abc_sunset")
	assert.Equal(t, "photo_gallery/abc_sunset.png", key)
	assert.Equal(t, "image/png", contentType)

	key, _ = objectKey(pngBytes, "", "abc")
	require.Equal(t, "abc.png", key)
}
