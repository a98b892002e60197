package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/gallery"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, perMinute int) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(slog.New(slog.NewTextHandler(io.Discard, nil)), RateLimitConfig{PerMinute: perMinute})
	t.Cleanup(rl.Shutdown)
	return rl
}

func serve(e *echo.Echo, h echo.HandlerFunc, ip string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/verify", nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestRateLimiter_Middleware(t *testing.T) {
	e := echo.New()
	rl := newTestLimiter(t, 3)
	h := rl.Middleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		rec, err := serve(e, h, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec, err := serve(e, h, "10.0.0.1")
	assert.Equal(t, gallery.ERATELIMIT, gallery.ErrorCode(err))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Other clients keep their own bucket.
	rec, err = serve(e, h, "10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_GetLimiterReuse(t *testing.T) {
	rl := newTestLimiter(t, 10)

	assert.Same(t, rl.GetLimiter("1.2.3.4"), rl.GetLimiter("1.2.3.4"))
	assert.NotSame(t, rl.GetLimiter("1.2.3.4"), rl.GetLimiter("5.6.7.8"))
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := newTestLimiter(t, 10)
	rl.GetLimiter("1.2.3.4")

	assert.Equal(t, 0, rl.sweep(time.Now()))
	assert.Equal(t, 1, rl.sweep(time.Now().Add(2*time.Hour)))

	_, ok := rl.limiters.Load("1.2.3.4")
	assert.False(t, ok)
}
