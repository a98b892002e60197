package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/gallery"
	"github.com/labstack/echo/v4"
)

// RespondOK writes body as JSON with status 200.
func RespondOK(c echo.Context, body any) error {
	return c.JSON(http.StatusOK, body)
}

// withTimeout creates a context with a timeout for handler operations.
func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), DefaultTimeout)
}

// requireIntParam extracts a positive integer route parameter.
func requireIntParam(c echo.Context, name string) (int, error) {
	value := c.Param(name)
	if value == "" {
		return 0, gallery.Invalid("%s is required", name)
	}
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, gallery.Invalid("Invalid %s", name)
	}
	return id, nil
}

// bind binds the request body to a struct and validates it.
func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return gallery.Invalid("Invalid request body")
	}
	if err := c.Validate(v); err != nil {
		return err
	}
	return nil
}

// log returns the request-scoped logger.
func (s *Server) log(c echo.Context) *slog.Logger {
	return s.getRequestLogger(c)
}
