package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/gallery"
	gallerymw "github.com/dukerupert/gallery/internal/middleware"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	// HeaderAdminPassword carries the admin secret on mutating requests.
	HeaderAdminPassword = "X-Admin-Password"

	// Default timeout for store reads in handlers.
	DefaultTimeout = 10 * time.Second
)

// registerMiddleware sets up all middleware for the server.
func (s *Server) registerMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Metrics sit outside the logger so the recorded status is final
	s.echo.Use(gallerymw.MetricsMiddleware())

	// Request ID middleware
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))

	// Logger middleware with request ID
	s.echo.Use(s.requestLoggerMiddleware())

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.CORSAllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, HeaderAdminPassword},
	}))

	// Custom error handler
	s.echo.HTTPErrorHandler = s.httpErrorHandler
}

// uploadBodyLimit bounds the upload request body. Base64 inflates the
// decoded limit by 4/3; the extra 64KB covers the JSON envelope.
func (s *Server) uploadBodyLimit() echo.MiddlewareFunc {
	limitKB := (s.MaxUploadBytes/3*4+64*1024)/1024 + 1
	return middleware.BodyLimit(fmt.Sprintf("%dK", limitKB))
}

// requestLoggerMiddleware creates a middleware that logs requests with context.
func (s *Server) requestLoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)

			// Create request-scoped logger
			logger := s.logger.With(
				slog.String("request_id", requestID),
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
			)
			c.Set("logger", logger)

			// Expose the request ID to the service layer
			ctx := gallery.NewContextWithRequestID(c.Request().Context(), requestID)
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)

			// Log request completion
			duration := time.Since(start)
			status := c.Response().Status
			if err != nil {
				status = errorStatus(err)
			}

			logAttrs := []any{
				slog.Int("status", status),
				slog.Duration("duration", duration),
			}

			if err != nil {
				logAttrs = append(logAttrs, slog.String("error", err.Error()))
			}

			if status >= 500 {
				logger.Error("request completed with server error", logAttrs...)
			} else if status >= 400 {
				logger.Warn("request completed with client error", logAttrs...)
			} else {
				logger.Info("request completed", logAttrs...)
			}

			return err
		}
	}
}

// httpErrorHandler handles errors and returns appropriate responses.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	// Echo raises its own errors for unknown routes, body limits and the like
	if he, ok := err.(*echo.HTTPError); ok {
		_ = c.JSON(he.Code, ErrorResponse{
			Success: false,
			Error:   fmt.Sprint(he.Message),
			Code:    httpErrorCode(he.Code),
		})
		return
	}

	// Handle domain errors
	_ = HandleError(c, s.getRequestLogger(c), err)
}

// getRequestLogger retrieves the request-scoped logger from context.
func (s *Server) getRequestLogger(c echo.Context) *slog.Logger {
	if logger, ok := c.Get("logger").(*slog.Logger); ok {
		return logger
	}
	return s.logger
}
