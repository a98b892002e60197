package http

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes sets up all routes for the server.
// All routes are defined in this single file for easy navigation.
func (s *Server) registerRoutes() {
	// Operational routes
	s.echo.GET("/health/live", s.handleLivenessCheck)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	limited := s.rateLimiter.Middleware()

	// Diagnostics (public)
	api.GET("/health", s.handleHealthCheck)
	api.GET("/debug", s.handleDebug)

	// Photos
	api.GET("/photos", s.handleListPhotos)
	api.POST("/photos", s.handleUploadPhoto, limited, s.uploadBodyLimit())
	api.GET("/photos/:id/image", s.handleGetPhotoImage)
	api.DELETE("/photos/:id", s.handleDeletePhoto, limited)

	// Admin
	api.POST("/admin/verify", s.handleVerifyAdmin, limited)
}
