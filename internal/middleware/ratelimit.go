package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dukerupert/gallery"
	"github.com/dukerupert/gallery/internal/metrics"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimiter throttles requests per client IP using a token bucket
// (golang.org/x/time/rate). Limiters live in memory and are removed after an
// hour without traffic.
//
// SECURITY IMPORTANT: the limiter keys on c.RealIP(). Behind a proxy, configure
// Echo's IPExtractor so X-Forwarded-For cannot be spoofed:
//
//	e.IPExtractor = echo.ExtractIPFromXFFHeader(
//	    echo.TrustLoopback(true),
//	    echo.TrustPrivateNet(true),
//	)
//
// See: https://echo.labstack.com/docs/ip-address
type RateLimiter struct {
	limiters sync.Map // IP address -> *limiterEntry
	logger   *slog.Logger
	config   RateLimitConfig
	ctx      context.Context
	cancel   context.CancelFunc
}

// limiterEntry wraps a rate limiter with metadata for cleanup.
// lastAccess is stored as Unix timestamp (int64) for thread-safe atomic access.
type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64 // Unix timestamp in seconds
}

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	// PerMinute is the sustained number of requests allowed per IP.
	PerMinute int

	// Burst is the bucket size. Defaults to PerMinute.
	Burst int

	// CleanupInterval is how often idle limiters are swept.
	CleanupInterval time.Duration

	// IdleTimeout is how long a limiter may go unused before removal.
	IdleTimeout time.Duration
}

// DefaultRateLimitConfig returns 10 requests/minute per IP with an hourly sweep.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		PerMinute:       10,
		Burst:           10,
		CleanupInterval: time.Hour,
		IdleTimeout:     time.Hour,
	}
}

// NewRateLimiter creates a rate limiter and starts its cleanup goroutine.
//
// Usage:
//
//	limiter := middleware.NewRateLimiter(logger, cfg)
//	defer limiter.Shutdown()
//	admin.Use(limiter.Middleware())
func NewRateLimiter(logger *slog.Logger, cfg RateLimitConfig) *RateLimiter {
	def := DefaultRateLimitConfig()
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = def.PerMinute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.PerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	rl := &RateLimiter{
		logger: logger,
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	go rl.cleanupOldLimiters()

	return rl
}

// Middleware returns the rate limiting middleware. Rejected requests get
// ERATELIMIT, which the HTTP layer renders as 429.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			limit := fmt.Sprintf("%d", rl.config.PerMinute)

			if !rl.GetLimiter(ip).Allow() {
				rl.logger.Warn("rate limit exceeded",
					slog.String("ip", ip),
					slog.String("path", c.Path()),
					slog.String("method", c.Request().Method))
				metrics.HTTPRateLimitedTotal.WithLabelValues(c.Path()).Inc()

				c.Response().Header().Set("Retry-After", "60")
				c.Response().Header().Set("X-RateLimit-Limit", limit)
				c.Response().Header().Set("X-RateLimit-Remaining", "0")

				return gallery.Errorf(gallery.ERATELIMIT, "Too many requests, please try again later")
			}

			c.Response().Header().Set("X-RateLimit-Limit", limit)
			return next(c)
		}
	}
}

// GetLimiter returns the rate limiter for a given IP address, creating it on
// first use.
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	if entry, exists := rl.limiters.Load(ip); exists {
		limEntry := entry.(*limiterEntry)
		limEntry.lastAccess.Store(time.Now().Unix())
		return limEntry.limiter
	}

	every := rate.Every(time.Minute / time.Duration(rl.config.PerMinute))
	entry := &limiterEntry{
		limiter: rate.NewLimiter(every, rl.config.Burst),
	}
	entry.lastAccess.Store(time.Now().Unix())
	actual, _ := rl.limiters.LoadOrStore(ip, entry)
	return actual.(*limiterEntry).limiter
}

// cleanupOldLimiters removes idle limiters until Shutdown is called.
func (rl *RateLimiter) cleanupOldLimiters() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := rl.sweep(time.Now()); removed > 0 {
				rl.logger.Info("cleaned up old rate limiters", slog.Int("removed", removed))
			}
		case <-rl.ctx.Done():
			rl.logger.Debug("rate limiter cleanup goroutine stopping")
			return
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) int {
	var removed int
	cutoff := now.Add(-rl.config.IdleTimeout).Unix()
	rl.limiters.Range(func(key, value interface{}) bool {
		if value.(*limiterEntry).lastAccess.Load() < cutoff {
			rl.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Shutdown stops the cleanup goroutine.
func (rl *RateLimiter) Shutdown() {
	if rl.cancel != nil {
		rl.cancel()
	}
}
