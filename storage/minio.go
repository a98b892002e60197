package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dukerupert/gallery"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioAPI is the subset of *minio.Client the backend uses.
type minioAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	BucketExists(ctx context.Context, bucketName string) (bool, error)
}

// MinioBackend stores images in MinIO or any S3-compatible endpoint.
type MinioBackend struct {
	client     minioAPI
	bucket     string
	publicBase string
}

var _ gallery.ImageBackend = (*MinioBackend)(nil)

func newMinioFromConfig(cfg gallery.StorageConfig) (*MinioBackend, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	publicBase := cfg.MinioPublicBase
	if publicBase == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s/%s", scheme, cfg.MinioEndpoint, cfg.MinioBucket)
	}
	return newMinioBackend(client, cfg.MinioBucket, publicBase), nil
}

func newMinioBackend(client minioAPI, bucket, publicBase string) *MinioBackend {
	return &MinioBackend{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

func (b *MinioBackend) Provider() string  { return gallery.ProviderMinio }
func (b *MinioBackend) IsConfigured() bool { return true }

func (b *MinioBackend) Upload(ctx context.Context, data []byte, folder, id string) (*gallery.UploadResult, error) {
	key, contentType := objectKey(data, folder, id)
	_, err := b.client.PutObject(ctx, b.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("put object %q: %w", key, err)
	}
	return &gallery.UploadResult{URL: b.publicBase + "/" + key, PublicID: key}, nil
}

// Destroy removes the object at publicID from the bucket.
func (b *MinioBackend) Destroy(ctx context.Context, publicID string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, publicID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", publicID, err)
	}
	return nil
}

func (b *MinioBackend) ping(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", b.bucket)
	}
	return nil
}
