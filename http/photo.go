package http

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/gallery"
	"github.com/labstack/echo/v4"
)

// ListPhotosResponse is the body of GET /api/photos.
type ListPhotosResponse struct {
	Success     bool             `json:"success"`
	Photos      []*gallery.Photo `json:"photos"`
	StorageType string           `json:"storageType"`
	TotalCount  int              `json:"totalCount"`
}

// UploadPhotoRequest is the request payload for uploading a photo.
// image_data is accepted for clients of the earlier API.
type UploadPhotoRequest struct {
	ImageData       string `json:"imageData"`
	LegacyImageData string `json:"image_data"`
	Filename        string `json:"filename" validate:"max=255"`
	Title           string `json:"title" validate:"max=200"`
	Description     string `json:"description" validate:"max=2000"`
}

// UploadPhotoResponse is the body of a successful upload.
type UploadPhotoResponse struct {
	Success     bool           `json:"success"`
	Photo       *gallery.Photo `json:"photo"`
	StorageType string         `json:"storageType"`
}

// DeletePhotoResponse is the body of a successful delete.
type DeletePhotoResponse struct {
	Success bool `json:"success"`
}

func (s *Server) handleListPhotos(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := s.galleryService.ListPhotos(ctx)
	if err != nil {
		return err
	}

	return RespondOK(c, ListPhotosResponse{
		Success:     true,
		Photos:      list.Photos,
		StorageType: list.StorageType,
		TotalCount:  list.TotalCount,
	})
}

func (s *Server) handleUploadPhoto(c echo.Context) error {
	// Check the secret before reading a potentially large body
	password := c.Request().Header.Get(HeaderAdminPassword)
	if password == "" {
		return gallery.Unauthorized("Unauthorized")
	}

	var req UploadPhotoRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	imageData := req.ImageData
	if imageData == "" {
		imageData = req.LegacyImageData
	}

	// The service bounds each remote call itself
	photo, err := s.galleryService.UploadPhoto(c.Request().Context(), gallery.UploadRequest{
		AdminPassword: password,
		ImageData:     imageData,
		Filename:      req.Filename,
		Title:         req.Title,
		Description:   req.Description,
	})
	if err != nil {
		return err
	}

	s.log(c).Info("photo uploaded",
		slog.Int("photo_id", photo.ID),
		slog.String("title", photo.Title),
	)

	return RespondOK(c, UploadPhotoResponse{
		Success:     true,
		Photo:       photo,
		StorageType: s.galleryService.StorageType(),
	})
}

func (s *Server) handleGetPhotoImage(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	id, err := requireIntParam(c, "id")
	if err != nil {
		return err
	}

	img, err := s.galleryService.FindPhotoImage(ctx, id)
	if err != nil {
		return err
	}

	if img.RedirectURL != "" {
		return c.Redirect(http.StatusFound, img.RedirectURL)
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Blob(http.StatusOK, img.ContentType, img.Data)
}

func (s *Server) handleDeletePhoto(c echo.Context) error {
	id, err := requireIntParam(c, "id")
	if err != nil {
		return err
	}

	password := c.Request().Header.Get(HeaderAdminPassword)
	if err := s.galleryService.DeletePhoto(c.Request().Context(), password, id); err != nil {
		return err
	}

	return RespondOK(c, DeletePhotoResponse{Success: true})
}
