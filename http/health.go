package http

import (
	"github.com/labstack/echo/v4"
)

func (s *Server) handleHealthCheck(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	return RespondOK(c, s.galleryService.Health(ctx))
}

// handleDebug is the health report plus per-credential presence.
func (s *Server) handleDebug(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	h := s.galleryService.Health(ctx)
	h.Credentials = s.credentials
	return RespondOK(c, h)
}

func (s *Server) handleLivenessCheck(c echo.Context) error {
	return RespondOK(c, map[string]string{"status": "alive"})
}
