package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/dukerupert/gallery"
	"github.com/dukerupert/gallery/internal/middleware"
	"github.com/dukerupert/gallery/internal/validation"
	"github.com/labstack/echo/v4"
)

// Server represents the HTTP server with all its dependencies.
type Server struct {
	echo   *echo.Echo
	ln     net.Listener
	logger *slog.Logger

	// Configuration
	Addr             string
	MaxUploadBytes   int
	CORSAllowOrigins []string

	// credentials maps required storage credential names to whether each is set.
	credentials map[string]bool

	// Domain services
	galleryService gallery.GalleryService

	rateLimiter *middleware.RateLimiter
}

// Config holds the configuration for creating a new Server.
type Config struct {
	Addr   string
	Logger *slog.Logger

	// MaxUploadBytes is the decoded image limit; the request body limit is
	// derived from it.
	MaxUploadBytes   int
	CORSAllowOrigins []string

	// AdminRateLimit is requests per minute per IP on admin routes.
	AdminRateLimit int

	// StorageCredentials is reported by /api/debug.
	StorageCredentials map[string]bool

	// Domain services
	GalleryService gallery.GalleryService
}

// NewServer creates a new HTTP server with the given configuration.
func NewServer(cfg Config) *Server {
	s := &Server{
		Addr:             cfg.Addr,
		logger:           cfg.Logger,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		credentials:      cfg.StorageCredentials,
		galleryService:   cfg.GalleryService,
	}

	if s.MaxUploadBytes <= 0 {
		s.MaxUploadBytes = gallery.DefaultMaxUploadBytes
	}
	if len(s.CORSAllowOrigins) == 0 {
		s.CORSAllowOrigins = []string{"*"}
	}

	rl := middleware.DefaultRateLimitConfig()
	if cfg.AdminRateLimit > 0 {
		rl.PerMinute = cfg.AdminRateLimit
		rl.Burst = cfg.AdminRateLimit
	}
	s.rateLimiter = middleware.NewRateLimiter(s.logger, rl)

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Validator = validation.NewValidator()

	// Register middleware and routes
	s.registerMiddleware()
	s.registerRoutes()

	return s
}

// Echo returns the underlying Echo instance.
// Use sparingly - prefer registering routes through Server methods.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Open starts the HTTP server.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln

	go func() {
		if err := s.echo.Server.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	s.logger.Info("server started", slog.String("addr", s.Addr))
	return nil
}

// Close gracefully shuts down the HTTP server.
func (s *Server) Close(ctx context.Context) error {
	s.rateLimiter.Shutdown()
	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// URL returns the URL of the server.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}
