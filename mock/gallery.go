package mock

import (
	"context"

	"github.com/dukerupert/gallery"
)

// Compile-time interface checks
var (
	_ gallery.GalleryService = (*GalleryService)(nil)
	_ gallery.AdminVerifier  = (*AdminVerifier)(nil)
)

// GalleryService is a mock implementation of gallery.GalleryService.
type GalleryService struct {
	ListPhotosFn     func(ctx context.Context) (*gallery.PhotoList, error)
	UploadPhotoFn    func(ctx context.Context, req gallery.UploadRequest) (*gallery.Photo, error)
	FindPhotoImageFn func(ctx context.Context, id int) (*gallery.PhotoImage, error)
	DeletePhotoFn    func(ctx context.Context, adminPassword string, id int) error
	VerifyAdminFn    func(ctx context.Context, password string) (*gallery.AdminStatus, error)
	HealthFn         func(ctx context.Context) *gallery.Health
	StorageTypeFn    func() string
}

func (s *GalleryService) ListPhotos(ctx context.Context) (*gallery.PhotoList, error) {
	if s.ListPhotosFn != nil {
		return s.ListPhotosFn(ctx)
	}
	return &gallery.PhotoList{Photos: []*gallery.Photo{}, StorageType: s.StorageType()}, nil
}

func (s *GalleryService) UploadPhoto(ctx context.Context, req gallery.UploadRequest) (*gallery.Photo, error) {
	if s.UploadPhotoFn != nil {
		return s.UploadPhotoFn(ctx, req)
	}
	return nil, gallery.Unavailable("Remote image storage is not configured")
}

func (s *GalleryService) FindPhotoImage(ctx context.Context, id int) (*gallery.PhotoImage, error) {
	if s.FindPhotoImageFn != nil {
		return s.FindPhotoImageFn(ctx, id)
	}
	return nil, gallery.NotFound("Photo not found")
}

func (s *GalleryService) DeletePhoto(ctx context.Context, adminPassword string, id int) error {
	if s.DeletePhotoFn != nil {
		return s.DeletePhotoFn(ctx, adminPassword, id)
	}
	return gallery.NotFound("Photo not found")
}

func (s *GalleryService) VerifyAdmin(ctx context.Context, password string) (*gallery.AdminStatus, error) {
	if s.VerifyAdminFn != nil {
		return s.VerifyAdminFn(ctx, password)
	}
	return nil, gallery.Unauthorized("Invalid password")
}

func (s *GalleryService) Health(ctx context.Context) *gallery.Health {
	if s.HealthFn != nil {
		return s.HealthFn(ctx)
	}
	return &gallery.Health{Status: "healthy", StorageType: s.StorageType()}
}

func (s *GalleryService) StorageType() string {
	if s.StorageTypeFn != nil {
		return s.StorageTypeFn()
	}
	return gallery.StorageSummaryFallback
}

// AdminVerifier is a mock implementation of gallery.AdminVerifier.
// Without VerifyFn it accepts exactly Password.
type AdminVerifier struct {
	Password string
	VerifyFn func(password string) bool
}

func (v *AdminVerifier) Verify(password string) bool {
	if v.VerifyFn != nil {
		return v.VerifyFn(password)
	}
	return password != "" && password == v.Password
}
