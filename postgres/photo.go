package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/gallery"
	"github.com/jackc/pgx/v5"
)

// Compile-time check that PhotoStore implements gallery.PhotoStore.
var _ gallery.PhotoStore = (*PhotoStore)(nil)

// PhotoStore implements gallery.PhotoStore using PostgreSQL.
type PhotoStore struct {
	db *DB
}

// photoRow mirrors the photos table for pgx.RowToStructByName.
type photoRow struct {
	ID          int    `db:"id"`
	Filename    string `db:"filename"`
	Title       string `db:"title"`
	Description string `db:"description"`
	StorageType string `db:"storage_type"`
	RemoteURL   string `db:"remote_url"`
	RemoteID    string `db:"remote_id"`
	ImageURL    string `db:"image_url"`
	InlineData  string `db:"inline_data"`
	UploadDate  string `db:"upload_date"`
}

func (r photoRow) toDomain() *gallery.Photo {
	return &gallery.Photo{
		ID:          r.ID,
		Filename:    r.Filename,
		Title:       r.Title,
		Description: r.Description,
		StorageType: gallery.StorageType(r.StorageType),
		RemoteURL:   r.RemoteURL,
		RemoteID:    r.RemoteID,
		ImageURL:    r.ImageURL,
		InlineData:  r.InlineData,
		UploadDate:  r.UploadDate,
	}
}

func (s *PhotoStore) Provider() string { return "postgres" }

func (s *PhotoStore) Load(ctx context.Context) []*gallery.Photo {
	photos, err := s.Read(ctx)
	if err != nil {
		s.logReadError(ctx, err)
		return []*gallery.Photo{}
	}
	return photos
}

func (s *PhotoStore) Read(ctx context.Context) ([]*gallery.Photo, error) {
	rows, err := s.db.pool.Query(ctx, `
		SELECT id, filename, title, description, storage_type,
		       remote_url, remote_id, image_url, inline_data, upload_date
		FROM photos
		ORDER BY id`)
	if err != nil {
		return nil, gallery.StoreRead("Failed to read photo metadata", err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[photoRow])
	if err != nil {
		return nil, gallery.StoreRead("Failed to read photo metadata", err)
	}

	photos := make([]*gallery.Photo, 0, len(records))
	for _, r := range records {
		photos = append(photos, r.toDomain())
	}
	return photos, nil
}

func (s *PhotoStore) Save(ctx context.Context, photos []*gallery.Photo) error {
	err := pgx.BeginFunc(ctx, s.db.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM photos"); err != nil {
			return fmt.Errorf("clearing photos: %w", err)
		}

		batch := &pgx.Batch{}
		for _, p := range photos {
			batch.Queue(`
				INSERT INTO photos (id, filename, title, description, storage_type,
				                    remote_url, remote_id, image_url, inline_data, upload_date)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				p.ID, p.Filename, p.Title, p.Description, string(p.StorageType),
				p.RemoteURL, p.RemoteID, p.ImageURL, p.InlineData, p.UploadDate)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		s.db.logger.Error("failed to save photo metadata",
			slog.Bool("duplicate_id", isUniqueViolation(err)),
			slog.String("request_id", gallery.RequestIDFromContext(ctx)),
			slog.String("error", err.Error()))
		return gallery.PersistFailed("Failed to save photo metadata", err)
	}
	return nil
}

func (s *PhotoStore) NextID(ctx context.Context) int {
	return gallery.NextPhotoID(s.Load(ctx))
}

func (s *PhotoStore) Exists(ctx context.Context) bool {
	var exists bool
	err := s.db.pool.QueryRow(ctx, "SELECT to_regclass('photos') IS NOT NULL").Scan(&exists)
	return err == nil && exists
}

func (s *PhotoStore) logReadError(ctx context.Context, err error) {
	s.db.logger.Error("photo metadata unreadable, serving empty collection",
		slog.String("code", gallery.ErrorCode(err)),
		slog.String("request_id", gallery.RequestIDFromContext(ctx)),
		slog.String("error", err.Error()))
}
