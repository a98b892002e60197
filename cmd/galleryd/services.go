package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dukerupert/gallery"
	"github.com/dukerupert/gallery/internal/auth"
	"github.com/dukerupert/gallery/jsonfile"
	"github.com/dukerupert/gallery/postgres"
	"github.com/dukerupert/gallery/service"
	"github.com/dukerupert/gallery/sqlite"
	"github.com/dukerupert/gallery/storage"
)

// Services holds all application services and what must be released on exit.
type Services struct {
	GalleryService *service.GalleryService
	Store          gallery.PhotoStore
	Backend        gallery.ImageBackend

	closers []func() error
}

// Close releases the metadata store and the storage client.
func (s *Services) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// initServices initializes all application services.
func initServices(ctx context.Context, cfg *Config, logger *slog.Logger) (*Services, error) {
	services := &Services{}

	store, err := initPhotoStore(ctx, cfg, logger, services)
	if err != nil {
		return nil, err
	}
	services.Store = store
	logger.Info("metadata store initialized", slog.String("provider", store.Provider()))

	backend := initImageBackend(ctx, cfg, logger, services)
	services.Backend = backend
	logger.Info("image backend initialized",
		slog.String("provider", backend.Provider()),
		slog.Bool("configured", backend.IsConfigured()))

	verifier, err := auth.NewAdminVerifier(cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		services.Close()
		return nil, fmt.Errorf("configuring admin secret: %w", err)
	}

	services.GalleryService = service.NewGalleryService(store, backend, verifier, logger, service.Config{
		Folder:         cfg.Storage.Folder,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RemoteTimeout:  cfg.RemoteTimeout,
	})

	if cfg.SeedPlaceholder {
		seeded, err := services.GalleryService.SeedPlaceholder(ctx)
		if err != nil {
			// An unwritable store is reported on every upload; keep serving reads
			logger.Error("failed to seed placeholder photo", slog.String("error", err.Error()))
		} else if seeded {
			logger.Debug("placeholder photo seeded")
		}
	}

	return services, nil
}

// initPhotoStore creates the metadata store named by METADATA_PROVIDER.
func initPhotoStore(ctx context.Context, cfg *Config, logger *slog.Logger, services *Services) (gallery.PhotoStore, error) {
	logger.Debug("metadata store configuration",
		slog.String("provider", cfg.MetadataProvider),
		slog.String("json_path", cfg.MetadataPath),
		slog.String("sqlite_path", cfg.SQLitePath))

	switch cfg.MetadataProvider {
	case MetadataSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		services.closers = append(services.closers, store.Close)
		return store, nil
	case MetadataPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		services.closers = append(services.closers, func() error {
			db.Close()
			return nil
		})
		return db.PhotoStore, nil
	default:
		return jsonfile.NewStore(cfg.MetadataPath, logger), nil
	}
}

// initImageBackend creates the remote backend. Missing credentials or a
// failed probe leave the service running with remote storage disabled.
func initImageBackend(ctx context.Context, cfg *Config, logger *slog.Logger, services *Services) gallery.ImageBackend {
	logger.Debug("storage configuration",
		slog.String("provider", cfg.Storage.Provider),
		slog.String("folder", cfg.Storage.Folder),
		slog.Duration("remote_timeout", cfg.RemoteTimeout))

	backend := storage.Open(ctx, logger, cfg.Storage)
	if c, ok := backend.(io.Closer); ok {
		services.closers = append(services.closers, c.Close)
	}
	return backend
}
