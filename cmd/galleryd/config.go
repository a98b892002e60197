package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/gallery"
	"github.com/dukerupert/gallery/service"
	"github.com/dukerupert/gallery/storage"
)

// defaultAdminPassword is only accepted outside production.
const defaultAdminPassword = "change-me-in-production"

// Metadata store providers.
const (
	MetadataJSON     = "json"
	MetadataSQLite   = "sqlite"
	MetadataPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Host        string
	Port        int
	Environment string
	LogLevel    string

	// Admin settings
	AdminPassword     string
	AdminPasswordHash string
	AdminRateLimit    int

	// Metadata settings
	MetadataProvider string
	MetadataPath     string
	SQLitePath       string
	DatabaseURL      string
	SeedPlaceholder  bool

	// Upload settings
	MaxUploadBytes   int
	CORSAllowOrigins []string

	// Storage settings
	Storage       gallery.StorageConfig
	RemoteTimeout time.Duration
}

// LoadConfig loads configuration from environment variables.
func LoadConfig(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		// Server settings
		Host:        envString(getenv, "SERVER_HOST", "0.0.0.0"),
		Port:        envInt(getenv, "PORT", 5000),
		Environment: envString(getenv, "ENVIRONMENT", "dev"),
		LogLevel:    envString(getenv, "LOG_LEVEL", "info"),

		// Admin settings
		AdminPassword:     envString(getenv, "ADMIN_PASSWORD", ""),
		AdminPasswordHash: envString(getenv, "ADMIN_PASSWORD_HASH", ""),
		AdminRateLimit:    envInt(getenv, "ADMIN_RATE_LIMIT", 10),

		// Metadata settings
		MetadataProvider: envString(getenv, "METADATA_PROVIDER", MetadataJSON),
		MetadataPath:     envString(getenv, "METADATA_PATH", "photos_data.json"),
		SQLitePath:       envString(getenv, "SQLITE_PATH", "photos.db"),
		DatabaseURL:      envString(getenv, "DATABASE_URL", ""),
		SeedPlaceholder:  envBool(getenv, "SEED_PLACEHOLDER", true),

		// Upload settings
		MaxUploadBytes:   envInt(getenv, "MAX_UPLOAD_BYTES", gallery.DefaultMaxUploadBytes),
		CORSAllowOrigins: envList(getenv, "CORS_ALLOW_ORIGINS", []string{"*"}),

		// Storage settings
		Storage: gallery.StorageConfig{
			Provider:     envString(getenv, "STORAGE_PROVIDER", gallery.ProviderCloudinary),
			Folder:       envString(getenv, "STORAGE_FOLDER", service.DefaultFolder),
			ProbeTimeout: envDuration(getenv, "STORAGE_PROBE_TIMEOUT", storage.DefaultProbeTimeout),

			CloudinaryCloudName: getenv("CLOUDINARY_CLOUD_NAME"),
			CloudinaryAPIKey:    getenv("CLOUDINARY_API_KEY"),
			CloudinaryAPISecret: getenv("CLOUDINARY_API_SECRET"),

			S3Bucket:    getenv("STORAGE_S3_BUCKET"),
			S3AccessKey: getenv("STORAGE_S3_ACCESS_KEY"),
			S3SecretKey: getenv("STORAGE_S3_SECRET_KEY"),
			S3Region:    envString(getenv, "STORAGE_S3_REGION", "us-east-1"),
			S3BaseURL:   getenv("STORAGE_S3_BASE_URL"),

			MinioEndpoint:   getenv("STORAGE_MINIO_ENDPOINT"),
			MinioAccessKey:  getenv("STORAGE_MINIO_ACCESS_KEY"),
			MinioSecretKey:  getenv("STORAGE_MINIO_SECRET_KEY"),
			MinioBucket:     getenv("STORAGE_MINIO_BUCKET"),
			MinioUseSSL:     envBool(getenv, "STORAGE_MINIO_USE_SSL", true),
			MinioPublicBase: getenv("STORAGE_MINIO_PUBLIC_BASE"),

			GCSBucket:          getenv("STORAGE_GCS_BUCKET"),
			GCSCredentialsFile: getenv("STORAGE_GCS_CREDENTIALS_FILE"),
		},
		RemoteTimeout: envDuration(getenv, "STORAGE_TIMEOUT", service.DefaultRemoteTimeout),
	}

	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" && !cfg.IsProduction() {
		cfg.AdminPassword = defaultAdminPassword
	}

	// Validate production requirements
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "prod" || c.Environment == "production"
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// validate checks production requirements.
func (c *Config) validate() error {
	switch c.MetadataProvider {
	case MetadataJSON, MetadataSQLite:
	case MetadataPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set when METADATA_PROVIDER is postgres")
		}
	default:
		return fmt.Errorf("unsupported METADATA_PROVIDER %q", c.MetadataProvider)
	}

	if c.IsProduction() {
		if c.AdminPassword == "" && c.AdminPasswordHash == "" {
			return fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set in production environment")
		}
		if c.AdminPassword == defaultAdminPassword {
			return fmt.Errorf("ADMIN_PASSWORD must be changed in production environment")
		}
	}
	return nil
}

// Helper functions for loading environment variables with defaults.

func envString(getenv func(string) string, key, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(getenv func(string) string, key string, defaultValue int) int {
	if value := getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func envBool(getenv func(string) string, key string, defaultValue bool) bool {
	if value := getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func envDuration(getenv func(string) string, key string, defaultValue time.Duration) time.Duration {
	if value := getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func envList(getenv func(string) string, key string, defaultValue []string) []string {
	value := getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
