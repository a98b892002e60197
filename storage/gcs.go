package storage

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"github.com/dukerupert/gallery"
	"google.golang.org/api/option"
)

// gcsBucket is the bucket-level surface the backend needs.
type gcsBucket interface {
	Write(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	Attrs(ctx context.Context) error
}

// gcsBucketHandle adapts *gcs.BucketHandle to gcsBucket.
type gcsBucketHandle struct {
	h *gcs.BucketHandle
}

func (b *gcsBucketHandle) Write(ctx context.Context, key, contentType string, data []byte) error {
	w := b.h.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (b *gcsBucketHandle) Delete(ctx context.Context, key string) error {
	return b.h.Object(key).Delete(ctx)
}

func (b *gcsBucketHandle) Attrs(ctx context.Context) error {
	_, err := b.h.Attrs(ctx)
	return err
}

// GCSBackend stores images in a Google Cloud Storage bucket.
type GCSBackend struct {
	bucket  gcsBucket
	name    string
	baseURL string
	client  *gcs.Client
}

var _ gallery.ImageBackend = (*GCSBackend)(nil)

func newGCSFromConfig(ctx context.Context, cfg gallery.StorageConfig) (*GCSBackend, error) {
	client, err := gcs.NewClient(ctx, option.WithCredentialsFile(cfg.GCSCredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	b := newGCSBackend(&gcsBucketHandle{h: client.Bucket(cfg.GCSBucket)}, cfg.GCSBucket)
	b.client = client
	return b, nil
}

func newGCSBackend(bucket gcsBucket, name string) *GCSBackend {
	return &GCSBackend{
		bucket:  bucket,
		name:    name,
		baseURL: "https://storage.googleapis.com/" + name,
	}
}

func (b *GCSBackend) Provider() string  { return gallery.ProviderGCS }
func (b *GCSBackend) IsConfigured() bool { return true }

func (b *GCSBackend) Upload(ctx context.Context, data []byte, folder, id string) (*gallery.UploadResult, error) {
	key, contentType := objectKey(data, folder, id)
	if err := b.bucket.Write(ctx, key, contentType, data); err != nil {
		return nil, fmt.Errorf("write object %q: %w", key, err)
	}
	return &gallery.UploadResult{URL: b.baseURL + "/" + key, PublicID: key}, nil
}

func (b *GCSBackend) Destroy(ctx context.Context, publicID string) error {
	if err := b.bucket.Delete(ctx, publicID); err != nil {
		return fmt.Errorf("delete object %q: %w", publicID, err)
	}
	return nil
}

// Close releases the underlying client.
func (b *GCSBackend) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

func (b *GCSBackend) ping(ctx context.Context) error {
	if err := b.bucket.Attrs(ctx); err != nil {
		return fmt.Errorf("bucket %q attrs: %w", b.name, err)
	}
	return nil
}
