package http

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/gallery"
	"github.com/labstack/echo/v4"
)

// errorStatusCode maps domain error codes to HTTP status codes.
func errorStatusCode(code string) int {
	switch code {
	case gallery.ENOTFOUND:
		return http.StatusNotFound
	case gallery.EINVALID:
		return http.StatusBadRequest
	case gallery.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case gallery.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	case gallery.EUPLOAD:
		return http.StatusBadGateway
	case gallery.ERATELIMIT:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// httpErrorCode maps an echo status back to a domain code for the response body.
func httpErrorCode(status int) string {
	switch status {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return gallery.ENOTFOUND
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return gallery.EINVALID
	case http.StatusUnauthorized:
		return gallery.EUNAUTHORIZED
	case http.StatusTooManyRequests:
		return gallery.ERATELIMIT
	default:
		return gallery.EINTERNAL
	}
}

// errorStatus returns the status an error will be rendered with.
func errorStatus(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return errorStatusCode(gallery.ErrorCode(err))
}

// ErrorResponse represents the JSON error response format.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// HandleError converts domain errors to appropriate HTTP responses.
// It logs internal errors and returns user-safe messages.
func HandleError(c echo.Context, logger *slog.Logger, err error) error {
	code := gallery.ErrorCode(err)
	message := gallery.ErrorMessage(err)
	fields := gallery.ErrorFields(err)
	status := errorStatusCode(code)

	// Log server-side failures with full details
	if status >= http.StatusInternalServerError {
		logger.Error("request error",
			slog.String("code", code),
			slog.String("error", err.Error()),
			slog.String("path", c.Path()),
			slog.String("method", c.Request().Method),
		)
	}
	if code == gallery.EINTERNAL {
		// Don't expose internal error details to clients
		message = "An internal error occurred."
	}

	return c.JSON(status, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
		Fields:  fields,
	})
}
