// Package jsonfile implements gallery.PhotoStore over a single JSON file.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dukerupert/gallery"
)

// Compile-time interface check
var _ gallery.PhotoStore = (*Store)(nil)

// Store keeps the whole collection as a JSON array in one file. Every Save
// rewrites the file through a temporary sibling and a rename, so readers see
// either the old or the new collection.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore returns a store backed by the file at path. The file is created
// on the first Save.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Provider() string { return "json" }

// Load reads the collection. Missing or corrupt files yield an empty slice.
func (s *Store) Load(ctx context.Context) []*gallery.Photo {
	photos, err := s.Read(ctx)
	if err != nil {
		s.logReadError(ctx, err)
		return []*gallery.Photo{}
	}
	return photos
}

// Read reads the collection, reporting unreadable or corrupt files.
// Null entries are skipped.
func (s *Store) Read(ctx context.Context) ([]*gallery.Photo, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("no photo metadata file found", slog.String("path", s.path))
			return []*gallery.Photo{}, nil
		}
		return nil, gallery.StoreRead("Failed to read photo metadata", err)
	}

	var records []*gallery.Photo
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, gallery.StoreRead("Failed to parse photo metadata", err)
	}

	photos := make([]*gallery.Photo, 0, len(records))
	for i, p := range records {
		if p == nil {
			s.logger.Warn("skipping null photo record",
				slog.String("path", s.path),
				slog.Int("index", i),
				slog.String("code", gallery.ESTOREREAD),
				slog.String("request_id", gallery.RequestIDFromContext(ctx)))
			continue
		}
		photos = append(photos, p)
	}

	s.logger.Debug("loaded photo metadata",
		slog.String("path", s.path),
		slog.Int("count", len(photos)))
	return photos, nil
}

// Save atomically replaces the file contents with photos.
func (s *Store) Save(ctx context.Context, photos []*gallery.Photo) error {
	if photos == nil {
		photos = []*gallery.Photo{}
	}
	data, err := json.MarshalIndent(photos, "", "  ")
	if err != nil {
		return gallery.PersistFailed("Failed to encode photo metadata", err)
	}
	data = append(data, '\n')

	if err := writeFileAtomic(s.path, data); err != nil {
		s.logger.Error("failed to save photo metadata",
			slog.String("path", s.path),
			slog.String("request_id", gallery.RequestIDFromContext(ctx)),
			slog.String("error", err.Error()))
		return gallery.PersistFailed("Failed to save photo metadata", err)
	}

	s.logger.Debug("saved photo metadata",
		slog.String("path", s.path),
		slog.Int("count", len(photos)))
	return nil
}

// NextID returns the id the next photo should receive.
func (s *Store) NextID(ctx context.Context) int {
	return gallery.NextPhotoID(s.Load(ctx))
}

// Exists reports whether the metadata file is present.
func (s *Store) Exists(ctx context.Context) bool {
	_, err := os.Stat(s.path)
	return err == nil
}

func (s *Store) logReadError(ctx context.Context, err error) {
	s.logger.Error("photo metadata unreadable, serving empty collection",
		slog.String("path", s.path),
		slog.String("code", gallery.ErrorCode(err)),
		slog.String("request_id", gallery.RequestIDFromContext(ctx)),
		slog.String("error", err.Error()))
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing metadata file: %w", err)
	}
	return nil
}
