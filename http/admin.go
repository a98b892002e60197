package http

import (
	"github.com/dukerupert/gallery"
	"github.com/labstack/echo/v4"
)

// VerifyAdminRequest is the request payload for admin verification.
type VerifyAdminRequest struct {
	Password string `json:"password"`
}

// VerifyAdminResponse is returned when the password matches.
type VerifyAdminResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	BackendConfigured bool   `json:"backendConfigured"`
	StorageType       string `json:"storageType"`
}

func (s *Server) handleVerifyAdmin(c echo.Context) error {
	var req VerifyAdminRequest
	if err := c.Bind(&req); err != nil {
		return gallery.Invalid("Invalid request body")
	}

	status, err := s.galleryService.VerifyAdmin(c.Request().Context(), req.Password)
	if err != nil {
		return err
	}

	return RespondOK(c, VerifyAdminResponse{
		Success:           true,
		Message:           "Admin verified",
		BackendConfigured: status.BackendConfigured,
		StorageType:       status.StorageType,
	})
}
