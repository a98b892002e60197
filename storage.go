package gallery

import (
	"context"
	"time"
)

// Storage providers.
const (
	ProviderCloudinary = "cloudinary"
	ProviderS3         = "s3"
	ProviderMinio      = "minio"
	ProviderGCS        = "gcs"
)

// StorageSummaryFallback is reported when no remote backend is configured.
const StorageSummaryFallback = "local_fallback"

// UploadResult is what the remote backend hands back for a stored image.
type UploadResult struct {
	URL      string
	PublicID string
}

// ImageBackend is the remote object storage that hosts image bytes.
type ImageBackend interface {
	// Provider names the implementation, e.g. "cloudinary".
	Provider() string

	// IsConfigured reports whether credentials were present and the startup
	// probe succeeded. It is computed once and never re-checked.
	IsConfigured() bool

	// Upload stores data under folder/id and returns its URL and public id.
	Upload(ctx context.Context, data []byte, folder, id string) (*UploadResult, error)

	// Destroy removes the object identified by publicID.
	Destroy(ctx context.Context, publicID string) error
}

// StorageSummary is the deployment-level storage description shown to clients.
func StorageSummary(b ImageBackend) string {
	if b == nil || !b.IsConfigured() {
		return StorageSummaryFallback
	}
	return b.Provider()
}

// StorageConfig holds configuration for the remote image backend.
type StorageConfig struct {
	// Provider is the backend ("cloudinary", "s3", "minio" or "gcs").
	Provider string

	// Folder is the destination folder (or key prefix) for uploads.
	Folder string

	// ProbeTimeout bounds the startup connectivity probe.
	ProbeTimeout time.Duration

	// Cloudinary
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	// S3
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3BaseURL   string

	// MinIO (or any S3-compatible endpoint)
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool
	MinioPublicBase string

	// Google Cloud Storage
	GCSBucket          string
	GCSCredentialsFile string
}

// Credentials returns the environment variable names required by the
// configured provider, mapped to whether each one is set.
func (c StorageConfig) Credentials() map[string]bool {
	switch c.Provider {
	case ProviderS3:
		return map[string]bool{
			"STORAGE_S3_BUCKET":     c.S3Bucket != "",
			"STORAGE_S3_ACCESS_KEY": c.S3AccessKey != "",
			"STORAGE_S3_SECRET_KEY": c.S3SecretKey != "",
		}
	case ProviderMinio:
		return map[string]bool{
			"STORAGE_MINIO_ENDPOINT":   c.MinioEndpoint != "",
			"STORAGE_MINIO_ACCESS_KEY": c.MinioAccessKey != "",
			"STORAGE_MINIO_SECRET_KEY": c.MinioSecretKey != "",
			"STORAGE_MINIO_BUCKET":     c.MinioBucket != "",
		}
	case ProviderGCS:
		return map[string]bool{
			"STORAGE_GCS_BUCKET":           c.GCSBucket != "",
			"STORAGE_GCS_CREDENTIALS_FILE": c.GCSCredentialsFile != "",
		}
	default:
		return map[string]bool{
			"CLOUDINARY_CLOUD_NAME": c.CloudinaryCloudName != "",
			"CLOUDINARY_API_KEY":    c.CloudinaryAPIKey != "",
			"CLOUDINARY_API_SECRET": c.CloudinaryAPISecret != "",
		}
	}
}

// HasCredentials reports whether every required credential is set.
func (c StorageConfig) HasCredentials() bool {
	for _, ok := range c.Credentials() {
		if !ok {
			return false
		}
	}
	return true
}
