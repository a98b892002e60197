// Package storage implements gallery.ImageBackend for the supported remote
// object stores. Open performs credential detection and the one-time startup
// probe; a backend that fails either is replaced by a Disabled backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/dukerupert/gallery"
	"github.com/gabriel-vasile/mimetype"
)

// DefaultProbeTimeout bounds the startup probe when none is configured.
const DefaultProbeTimeout = 10 * time.Second

// ErrNotConfigured is returned by every call on a Disabled backend.
var ErrNotConfigured = errors.New("remote image storage is not configured")

// remote is a concrete backend that can be probed at startup.
type remote interface {
	gallery.ImageBackend
	ping(ctx context.Context) error
}

// Open builds the backend named by cfg.Provider. It never fails: missing
// credentials, client construction errors and probe failures are logged and
// yield a Disabled backend.
func Open(ctx context.Context, logger *slog.Logger, cfg gallery.StorageConfig) gallery.ImageBackend {
	provider := cfg.Provider
	if provider == "" {
		provider = gallery.ProviderCloudinary
	}
	logger = logger.With(slog.String("provider", provider))

	for name, set := range cfg.Credentials() {
		status := "SET"
		if !set {
			status = "MISSING"
		}
		logger.Info("storage credential", slog.String("key", name), slog.String("status", status))
	}
	if !cfg.HasCredentials() {
		logger.Warn("remote image storage disabled, credentials missing")
		return NewDisabled(provider)
	}

	b, err := newRemote(ctx, provider, cfg)
	if err != nil {
		logger.Error("failed to create storage client", slog.String("error", err.Error()))
		return NewDisabled(provider)
	}

	return activate(ctx, logger, b, cfg.ProbeTimeout)
}

func newRemote(ctx context.Context, provider string, cfg gallery.StorageConfig) (remote, error) {
	switch provider {
	case gallery.ProviderCloudinary:
		return newCloudinaryFromConfig(cfg)
	case gallery.ProviderS3:
		return newS3FromConfig(ctx, cfg)
	case gallery.ProviderMinio:
		return newMinioFromConfig(cfg)
	case gallery.ProviderGCS:
		return newGCSFromConfig(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", provider)
	}
}

// activate runs the startup probe against b.
func activate(ctx context.Context, logger *slog.Logger, b remote, timeout time.Duration) gallery.ImageBackend {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := b.ping(probeCtx); err != nil {
		logger.Error("storage probe failed, remote image storage disabled", slog.String("error", err.Error()))
		if c, ok := b.(io.Closer); ok {
			c.Close()
		}
		return NewDisabled(b.Provider())
	}

	logger.Info("remote image storage configured")
	return b
}

// Disabled is the backend used when remote storage is unavailable.
type Disabled struct {
	provider string
}

var _ gallery.ImageBackend = (*Disabled)(nil)

// NewDisabled returns a backend that reports itself unconfigured.
func NewDisabled(provider string) *Disabled {
	return &Disabled{provider: provider}
}

func (d *Disabled) Provider() string  { return d.provider }
func (d *Disabled) IsConfigured() bool { return false }

func (d *Disabled) Upload(ctx context.Context, data []byte, folder, id string) (*gallery.UploadResult, error) {
	return nil, ErrNotConfigured
}

func (d *Disabled) Destroy(ctx context.Context, publicID string) error {
	return ErrNotConfigured
}

// objectKey returns the key for an upload along with its sniffed content type.
// The extension is derived from the bytes so browsers get a usable URL.
func objectKey(data []byte, folder, id string) (key, contentType string) {
	mt := mimetype.Detect(data)
	return path.Join(folder, id+mt.Extension()), mt.String()
}
