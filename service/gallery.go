// Package service implements gallery.GalleryService: the upload orchestrator
// and the read and delete operations over the metadata store.
package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/gallery"
	"github.com/dukerupert/gallery/internal/metrics"
	"github.com/dukerupert/gallery/internal/validation"
	"github.com/google/uuid"
)

// Compile-time interface check
var _ gallery.GalleryService = (*GalleryService)(nil)

const (
	// DefaultFolder is the remote folder uploads are placed in.
	DefaultFolder = "photo_gallery"

	// DefaultRemoteTimeout bounds every call to the remote backend.
	DefaultRemoteTimeout = 30 * time.Second

	defaultFilename = "photo.jpg"
	defaultTitle    = "Untitled"
)

// Config holds the orchestrator settings.
type Config struct {
	Folder         string
	MaxUploadBytes int
	RemoteTimeout  time.Duration
}

// GalleryService coordinates the metadata store and the remote backend.
//
// Every load-modify-save sequence runs under mu so that concurrent uploads
// and deletes cannot lose each other's writes or reuse an id.
type GalleryService struct {
	store     gallery.PhotoStore
	backend   gallery.ImageBackend
	verifier  gallery.AdminVerifier
	validator *validation.Validator
	logger    *slog.Logger
	cfg       Config

	mu sync.Mutex

	// Now and NewID are replaceable in tests.
	Now   func() time.Time
	NewID func() string
}

// NewGalleryService returns a service over store and backend.
func NewGalleryService(
	store gallery.PhotoStore,
	backend gallery.ImageBackend,
	verifier gallery.AdminVerifier,
	logger *slog.Logger,
	cfg Config,
) *GalleryService {
	if cfg.Folder == "" {
		cfg.Folder = DefaultFolder
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = gallery.DefaultMaxUploadBytes
	}
	if cfg.RemoteTimeout <= 0 {
		cfg.RemoteTimeout = DefaultRemoteTimeout
	}
	return &GalleryService{
		store:     store,
		backend:   backend,
		verifier:  verifier,
		validator: validation.NewValidator(),
		logger:    logger,
		cfg:       cfg,
		Now:       time.Now,
		NewID:     func() string { return uuid.New().String() },
	}
}

// StorageType returns the deployment storage summary.
func (s *GalleryService) StorageType() string {
	return gallery.StorageSummary(s.backend)
}

// ListPhotos returns every photo, newest upload first.
func (s *GalleryService) ListPhotos(ctx context.Context) (*gallery.PhotoList, error) {
	photos := s.store.Load(ctx)
	metrics.PhotosStored.Set(float64(len(photos)))
	gallery.SortPhotosNewestFirst(photos)

	return &gallery.PhotoList{
		Photos:      photos,
		StorageType: s.StorageType(),
		TotalCount:  len(photos),
	}, nil
}

// UploadPhoto validates the request, uploads the image and records it.
// If the record cannot be saved the remote object is destroyed so no
// orphan is left behind.
func (s *GalleryService) UploadPhoto(ctx context.Context, req gallery.UploadRequest) (*gallery.Photo, error) {
	logger := s.log(ctx)

	if !s.verifier.Verify(req.AdminPassword) {
		metrics.UploadsTotal.WithLabelValues(metrics.OutcomeUnauthorized).Inc()
		return nil, gallery.Unauthorized("Unauthorized")
	}

	if strings.TrimSpace(req.ImageData) == "" {
		metrics.UploadsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, gallery.Invalid("No image data provided")
	}
	if err := s.validator.Validate(&req); err != nil {
		metrics.UploadsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, err
	}
	payload, err := gallery.DecodeImageData(req.ImageData, s.cfg.MaxUploadBytes)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, err
	}

	if !s.backend.IsConfigured() {
		metrics.UploadsTotal.WithLabelValues(metrics.OutcomeUnavailable).Inc()
		return nil, gallery.Unavailable("Remote image storage is not configured, uploads are disabled")
	}

	filename := validation.SanitizeInput(req.Filename)
	if filename == "" {
		filename = defaultFilename
	}
	title := validation.SanitizeInput(req.Title)
	if title == "" {
		title = defaultTitle
	}
	publicID := s.NewID() + "_" + fileStem(filename)

	result, err := s.uploadRemote(ctx, payload.Data, publicID)
	if err != nil {
		logger.Error("remote upload failed",
			slog.String("provider", s.backend.Provider()),
			slog.String("public_id", publicID),
			slog.String("error", err.Error()))
		metrics.UploadsTotal.WithLabelValues(metrics.OutcomeUploadFailed).Inc()
		return nil, gallery.UploadFailed("Failed to upload image to remote storage", err)
	}

	photo, err := s.record(ctx, &gallery.Photo{
		Filename:    filename,
		Title:       title,
		Description: validation.SanitizeInput(req.Description),
		StorageType: gallery.StorageRemote,
		RemoteURL:   result.URL,
		RemoteID:    result.PublicID,
		ImageURL:    result.URL,
		UploadDate:  gallery.FormatUploadDate(s.Now()),
	})
	if err != nil {
		s.compensate(ctx, result.PublicID)
		metrics.UploadsTotal.WithLabelValues(metrics.OutcomePersistFail).Inc()
		if !gallery.IsErrorCode(err, gallery.EPERSIST) {
			err = gallery.PersistFailed("Failed to save photo metadata", err)
		}
		return nil, err
	}

	metrics.UploadsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	logger.Info("photo uploaded",
		slog.Int("photo_id", photo.ID),
		slog.String("remote_id", photo.RemoteID),
		slog.Int("bytes", len(payload.Data)),
		slog.String("content_type", payload.ContentType))

	return photo, nil
}

func (s *GalleryService) uploadRemote(ctx context.Context, data []byte, publicID string) (*gallery.UploadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RemoteTimeout)
	defer cancel()

	start := s.Now()
	defer func() {
		metrics.RemoteUploadDuration.WithLabelValues(s.backend.Provider()).Observe(s.Now().Sub(start).Seconds())
	}()

	return s.backend.Upload(ctx, data, s.cfg.Folder, publicID)
}

// record assigns the next id to photo and appends it to the store.
func (s *GalleryService) record(ctx context.Context, photo *gallery.Photo) (*gallery.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	photos, err := s.store.Read(ctx)
	if err != nil {
		return nil, gallery.PersistFailed("Photo metadata is unreadable, refusing to overwrite it", err)
	}
	photo.ID = gallery.NextPhotoID(photos)
	if err := photo.Validate(); err != nil {
		return nil, gallery.Internal("Built an invalid photo record", err)
	}

	if err := s.store.Save(ctx, append(photos, photo)); err != nil {
		return nil, err
	}
	metrics.PhotosStored.Set(float64(len(photos) + 1))
	return photo, nil
}

// compensate destroys an uploaded object whose record could not be saved.
// It runs once, detached from request cancellation, and never returns an error.
func (s *GalleryService) compensate(ctx context.Context, publicID string) {
	logger := s.log(ctx)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RemoteTimeout)
	defer cancel()

	err := s.backend.Destroy(ctx, publicID)
	metrics.CompensationsTotal.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		logger.Error("failed to clean up remote object after metadata save failure",
			slog.String("public_id", publicID),
			slog.String("error", err.Error()))
		return
	}
	logger.Warn("cleaned up remote object after metadata save failure",
		slog.String("public_id", publicID))
}

// FindPhotoImage resolves how the image of photo id is served.
func (s *GalleryService) FindPhotoImage(ctx context.Context, id int) (*gallery.PhotoImage, error) {
	photo := gallery.FindPhoto(s.store.Load(ctx), id)
	if photo == nil {
		return nil, gallery.NotFound("Photo not found")
	}

	if photo.RemoteURL != "" {
		return &gallery.PhotoImage{RedirectURL: photo.RemoteURL}, nil
	}

	if photo.InlineData != "" {
		payload, err := gallery.DecodeInlineImage(photo.InlineData)
		if err != nil {
			s.log(ctx).Error("stored inline image is not decodable",
				slog.Int("photo_id", id),
				slog.String("error", err.Error()))
			return nil, gallery.Internal("Failed to decode stored image", err)
		}
		return &gallery.PhotoImage{Data: payload.Data, ContentType: payload.ContentType}, nil
	}

	return nil, gallery.NotFound("Image data not found")
}

// DeletePhoto removes photo id. Destroying the remote object is best effort;
// the record is removed even if that call fails.
func (s *GalleryService) DeletePhoto(ctx context.Context, adminPassword string, id int) error {
	logger := s.log(ctx)

	if !s.verifier.Verify(adminPassword) {
		metrics.DeletesTotal.WithLabelValues(metrics.OutcomeUnauthorized).Inc()
		return gallery.Unauthorized("Unauthorized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	photos, err := s.store.Read(ctx)
	if err != nil {
		metrics.DeletesTotal.WithLabelValues(metrics.OutcomePersistFail).Inc()
		return gallery.PersistFailed("Photo metadata is unreadable, refusing to overwrite it", err)
	}
	photo := gallery.FindPhoto(photos, id)
	if photo == nil {
		return gallery.NotFound("Photo not found")
	}

	if photo.RemoteID != "" && s.backend.IsConfigured() {
		destroyCtx, cancel := context.WithTimeout(ctx, s.cfg.RemoteTimeout)
		err := s.backend.Destroy(destroyCtx, photo.RemoteID)
		cancel()
		if err != nil {
			logger.Warn("failed to delete remote object, removing record anyway",
				slog.Int("photo_id", id),
				slog.String("remote_id", photo.RemoteID),
				slog.String("error", err.Error()))
		}
	}

	remaining := gallery.RemovePhoto(photos, id)
	if err := s.store.Save(ctx, remaining); err != nil {
		metrics.DeletesTotal.WithLabelValues(metrics.OutcomePersistFail).Inc()
		if !gallery.IsErrorCode(err, gallery.EPERSIST) {
			err = gallery.PersistFailed("Failed to update photo data", err)
		}
		return err
	}

	metrics.DeletesTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	metrics.PhotosStored.Set(float64(len(remaining)))
	logger.Info("photo deleted", slog.Int("photo_id", id), slog.String("title", photo.Title))
	return nil
}

// VerifyAdmin checks password and reports backend status on success.
func (s *GalleryService) VerifyAdmin(ctx context.Context, password string) (*gallery.AdminStatus, error) {
	if !s.verifier.Verify(password) {
		s.log(ctx).Warn("admin verification failed")
		return nil, gallery.Unauthorized("Invalid password")
	}
	return &gallery.AdminStatus{
		BackendConfigured: s.backend.IsConfigured(),
		StorageType:       s.StorageType(),
	}, nil
}

// Health reports the diagnostic state of the deployment.
func (s *GalleryService) Health(ctx context.Context) *gallery.Health {
	return &gallery.Health{
		Status:            "healthy",
		BackendConfigured: s.backend.IsConfigured(),
		BackendProvider:   s.backend.Provider(),
		StorageType:       s.StorageType(),
		StoreProvider:     s.store.Provider(),
		StoreExists:       s.store.Exists(ctx),
		PhotosCount:       len(s.store.Load(ctx)),
	}
}

// SeedPlaceholder stores the welcome record when the collection is empty.
// It reports whether a record was written.
func (s *GalleryService) SeedPlaceholder(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	photos, err := s.store.Read(ctx)
	if err != nil {
		return false, err
	}
	if len(photos) > 0 {
		return false, nil
	}

	placeholder := &gallery.Photo{
		ID:          1,
		Filename:    "test_photo.jpg",
		Title:       "Welcome to Your Photo Gallery!",
		Description: "This is a sample photo. Upload your own photos via the admin panel.",
		StorageType: gallery.StoragePlaceholder,
		ImageURL:    PlaceholderImageURL,
		UploadDate:  gallery.FormatUploadDate(s.Now()),
	}
	if err := s.store.Save(ctx, []*gallery.Photo{placeholder}); err != nil {
		return false, err
	}
	s.logger.Info("initialized gallery with placeholder photo")
	return true, nil
}

// PlaceholderImageURL is shown for the seeded welcome record.
const PlaceholderImageURL = "https://via.placeholder.com/800x600/4F46E5/FFFFFF?text=Welcome+to+Your+Gallery"

func (s *GalleryService) log(ctx context.Context) *slog.Logger {
	if id := gallery.RequestIDFromContext(ctx); id != "" {
		return s.logger.With(slog.String("request_id", id))
	}
	return s.logger
}

// fileStem returns the filename up to its first dot.
func fileStem(filename string) string {
	base := filepath.Base(filename)
	stem, _, _ := strings.Cut(base, ".")
	if stem == "" {
		return "photo"
	}
	return stem
}
