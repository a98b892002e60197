package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/dukerupert/gallery"
)

// cloudinaryAPI is the subset of the Cloudinary SDK the backend uses.
type cloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
	Ping(ctx context.Context) error
}

// cloudinaryClient adapts *cloudinary.Cloudinary to cloudinaryAPI.
type cloudinaryClient struct {
	cld *cloudinary.Cloudinary
}

func (c *cloudinaryClient) Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	return c.cld.Upload.Upload(ctx, file, params)
}

func (c *cloudinaryClient) Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	return c.cld.Upload.Destroy(ctx, params)
}

func (c *cloudinaryClient) Ping(ctx context.Context) error {
	resp, err := c.cld.Admin.Ping(ctx)
	if err != nil {
		return err
	}
	if resp.Error.Message != "" {
		return errors.New(resp.Error.Message)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("unexpected ping status %q", resp.Status)
	}
	return nil
}

// CloudinaryBackend stores images in Cloudinary.
type CloudinaryBackend struct {
	client cloudinaryAPI
}

var _ gallery.ImageBackend = (*CloudinaryBackend)(nil)

func newCloudinaryFromConfig(cfg gallery.StorageConfig) (*CloudinaryBackend, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("create cloudinary client: %w", err)
	}
	return &CloudinaryBackend{client: &cloudinaryClient{cld: cld}}, nil
}

func (b *CloudinaryBackend) Provider() string  { return gallery.ProviderCloudinary }
func (b *CloudinaryBackend) IsConfigured() bool { return true }

// Upload stores data as folder/id. Cloudinary derives the format itself.
func (b *CloudinaryBackend) Upload(ctx context.Context, data []byte, folder, id string) (*gallery.UploadResult, error) {
	resp, err := b.client.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID: id,
		Folder:   folder,
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" || resp.PublicID == "" {
		return nil, errors.New("cloudinary upload: empty response")
	}
	return &gallery.UploadResult{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

func (b *CloudinaryBackend) Destroy(ctx context.Context, publicID string) error {
	resp, err := b.client.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %q: %w", publicID, err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %q: %s", publicID, resp.Error.Message)
	}
	if resp.Result != "ok" {
		return fmt.Errorf("cloudinary destroy %q: result %q", publicID, resp.Result)
	}
	return nil
}

func (b *CloudinaryBackend) ping(ctx context.Context) error {
	return b.client.Ping(ctx)
}
