package mock

import (
	"context"

	"github.com/dukerupert/gallery"
)

// Compile-time interface check
var _ gallery.ImageBackend = (*ImageBackend)(nil)

// ImageBackend is a mock implementation of gallery.ImageBackend.
// The zero value reports itself unconfigured.
type ImageBackend struct {
	Configured bool

	ProviderFn func() string
	UploadFn   func(ctx context.Context, data []byte, folder, id string) (*gallery.UploadResult, error)
	DestroyFn  func(ctx context.Context, publicID string) error
}

func (b *ImageBackend) Provider() string {
	if b.ProviderFn != nil {
		return b.ProviderFn()
	}
	return gallery.ProviderCloudinary
}

func (b *ImageBackend) IsConfigured() bool {
	return b.Configured
}

func (b *ImageBackend) Upload(ctx context.Context, data []byte, folder, id string) (*gallery.UploadResult, error) {
	if b.UploadFn != nil {
		return b.UploadFn(ctx, data, folder, id)
	}
	publicID := folder + "/" + id
	return &gallery.UploadResult{
		URL:      "https://mock-storage.example.com/" + publicID,
		PublicID: publicID,
	}, nil
}

func (b *ImageBackend) Destroy(ctx context.Context, publicID string) error {
	if b.DestroyFn != nil {
		return b.DestroyFn(ctx, publicID)
	}
	return nil
}
