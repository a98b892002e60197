package mock

import (
	"context"

	"github.com/dukerupert/gallery"
)

// Compile-time interface check
var _ gallery.PhotoStore = (*PhotoStore)(nil)

// PhotoStore is a mock implementation of gallery.PhotoStore.
type PhotoStore struct {
	LoadFn     func(ctx context.Context) []*gallery.Photo
	ReadFn     func(ctx context.Context) ([]*gallery.Photo, error)
	SaveFn     func(ctx context.Context, photos []*gallery.Photo) error
	NextIDFn   func(ctx context.Context) int
	ExistsFn   func(ctx context.Context) bool
	ProviderFn func() string
}

func (s *PhotoStore) Load(ctx context.Context) []*gallery.Photo {
	if s.LoadFn != nil {
		return s.LoadFn(ctx)
	}
	return []*gallery.Photo{}
}

// Read falls back to Load when ReadFn is unset.
func (s *PhotoStore) Read(ctx context.Context) ([]*gallery.Photo, error) {
	if s.ReadFn != nil {
		return s.ReadFn(ctx)
	}
	return s.Load(ctx), nil
}

func (s *PhotoStore) Save(ctx context.Context, photos []*gallery.Photo) error {
	if s.SaveFn != nil {
		return s.SaveFn(ctx, photos)
	}
	return nil
}

func (s *PhotoStore) NextID(ctx context.Context) int {
	if s.NextIDFn != nil {
		return s.NextIDFn(ctx)
	}
	return gallery.NextPhotoID(s.Load(ctx))
}

func (s *PhotoStore) Exists(ctx context.Context) bool {
	if s.ExistsFn != nil {
		return s.ExistsFn(ctx)
	}
	return true
}

func (s *PhotoStore) Provider() string {
	if s.ProviderFn != nil {
		return s.ProviderFn()
	}
	return "mock"
}
