package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	galleryhttp "github.com/dukerupert/gallery/http"
	"github.com/dukerupert/gallery/internal/auth"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment may already be populated
	_ = godotenv.Load()

	ctx := context.Background()
	if err := run(ctx, os.Stdout, os.Stderr, os.Args, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main entry point for the application, designed for testability.
// It accepts all external dependencies (IO, args, env) as parameters.
func run(
	ctx context.Context,
	stdout, stderr io.Writer,
	args []string,
	getenv func(string) string,
) error {
	if len(args) > 1 && args[1] == "hash-password" {
		return runHashPassword(stdout, args[2:], getenv)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := LoadConfig(getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Configure logger
	logger := newLogger(stderr, cfg)
	slog.SetDefault(logger)
	logger.Debug("logger initialized", slog.String("level", cfg.LogLevel))
	logger.Debug("application configuration",
		slog.String("environment", cfg.Environment),
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port))

	// Initialize services
	services, err := initServices(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing services: %w", err)
	}
	defer func() {
		if err := services.Close(); err != nil {
			logger.Error("failed to release resources", slog.String("error", err.Error()))
		}
	}()

	// Create HTTP server
	server := galleryhttp.NewServer(galleryhttp.Config{
		Addr:               cfg.Addr(),
		Logger:             logger,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		CORSAllowOrigins:   cfg.CORSAllowOrigins,
		AdminRateLimit:     cfg.AdminRateLimit,
		StorageCredentials: cfg.Storage.Credentials(),
		GalleryService:     services.GalleryService,
	})

	if err := server.Open(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	fmt.Fprintf(stdout, "gallery listening on %s\n", server.URL())

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("shutdown signal received")

	// Graceful shutdown
	logger.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer shutdownCancel()

	if err := server.Close(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.String("error", err.Error()))
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server exited gracefully")
	return nil
}

// runHashPassword prints the bcrypt hash of the password given as the only
// argument, or of ADMIN_PASSWORD when none is given.
//
//	galleryd hash-password 's3cret'
func runHashPassword(stdout io.Writer, args []string, getenv func(string) string) error {
	if len(args) > 1 {
		return fmt.Errorf("usage: galleryd hash-password [password]")
	}
	password := getenv("ADMIN_PASSWORD")
	if len(args) == 1 {
		password = args[0]
	}

	hash, err := auth.HashAdminPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, hash)
	return nil
}

// newLogger creates a configured slog.Logger based on environment.
func newLogger(w io.Writer, cfg *Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.String("time", a.Value.Time().Format(time.RFC3339Nano))
				}
				return a
			},
		})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}
