// Package sqlite implements gallery.PhotoStore over an embedded SQLite
// database. Save replaces the collection inside one transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukerupert/gallery"
	"github.com/dukerupert/gallery/internal/migrations"

	_ "github.com/mattn/go-sqlite3"
)

// Compile-time interface check
var _ gallery.PhotoStore = (*Store)(nil)

const selectPhotos = `
	SELECT id, filename, title, description, storage_type,
	       remote_url, remote_id, image_url, inline_data, upload_date
	FROM photos
	ORDER BY id`

const insertPhoto = `
	INSERT INTO photos (id, filename, title, description, storage_type,
	                    remote_url, remote_id, image_url, inline_data, upload_date)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Store is a SQLite-backed photo store.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (or creates) the database at path and applies migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// One writer at a time; WAL lets readers proceed alongside it.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if err := migrations.Up(db, migrations.DialectSQLite); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("sqlite photo store opened", slog.String("path", path))
	return &Store{db: db, path: path, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Provider() string { return "sqlite" }

// Load reads every photo. Query failures yield an empty collection.
func (s *Store) Load(ctx context.Context) []*gallery.Photo {
	photos, err := s.Read(ctx)
	if err != nil {
		s.logReadError(ctx, err)
		return []*gallery.Photo{}
	}
	return photos
}

// Read reads every photo, reporting query failures as ESTOREREAD.
func (s *Store) Read(ctx context.Context) ([]*gallery.Photo, error) {
	rows, err := s.db.QueryContext(ctx, selectPhotos)
	if err != nil {
		return nil, gallery.StoreRead("Failed to read photo metadata", err)
	}
	defer rows.Close()

	photos := []*gallery.Photo{}
	for rows.Next() {
		var p gallery.Photo
		var storageType string
		if err := rows.Scan(&p.ID, &p.Filename, &p.Title, &p.Description, &storageType,
			&p.RemoteURL, &p.RemoteID, &p.ImageURL, &p.InlineData, &p.UploadDate); err != nil {
			return nil, gallery.StoreRead("Failed to scan photo metadata", err)
		}
		p.StorageType = gallery.StorageType(storageType)
		photos = append(photos, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, gallery.StoreRead("Failed to read photo metadata", err)
	}
	return photos, nil
}

// Save replaces the stored collection with photos in one transaction.
func (s *Store) Save(ctx context.Context, photos []*gallery.Photo) error {
	if err := s.replaceAll(ctx, photos); err != nil {
		s.logger.Error("failed to save photo metadata",
			slog.String("path", s.path),
			slog.String("request_id", gallery.RequestIDFromContext(ctx)),
			slog.String("error", err.Error()))
		return gallery.PersistFailed("Failed to save photo metadata", err)
	}
	return nil
}

func (s *Store) replaceAll(ctx context.Context, photos []*gallery.Photo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM photos"); err != nil {
		return fmt.Errorf("clearing photos: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertPhoto)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range photos {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Filename, p.Title, p.Description, string(p.StorageType),
			p.RemoteURL, p.RemoteID, p.ImageURL, p.InlineData, p.UploadDate); err != nil {
			return fmt.Errorf("inserting photo %d: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// NextID returns the id the next photo should receive.
func (s *Store) NextID(ctx context.Context) int {
	return gallery.NextPhotoID(s.Load(ctx))
}

// Exists reports whether the photos table is present.
func (s *Store) Exists(ctx context.Context) bool {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'photos'").Scan(&n)
	return err == nil && n == 1
}

func (s *Store) logReadError(ctx context.Context, err error) {
	s.logger.Error("photo metadata unreadable, serving empty collection",
		slog.String("path", s.path),
		slog.String("code", gallery.ErrorCode(err)),
		slog.String("request_id", gallery.RequestIDFromContext(ctx)),
		slog.String("error", err.Error()))
}
