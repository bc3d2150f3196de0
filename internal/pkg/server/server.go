// Package server wraps fiber with the application's defaults: JSON error
// handling, the standard middleware chain, and a signal-driven lifecycle.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"linkdrop/internal/config"
	"linkdrop/internal/middleware"
)

// Config configures the HTTP server wrapper.
type Config struct {
	Config *config.Config
	Logger *zap.Logger

	ErrorHandler fiber.ErrorHandler

	EnableRequestLogger bool
	EnableRequestID     bool
	EnableRecover       bool
	EnableHelmet        bool
	EnableCompress      bool
	RequestTimeout      time.Duration
}

// DefaultConfig returns sensible defaults for the server configuration.
func DefaultConfig() *Config {
	return &Config{
		EnableRequestLogger: true,
		EnableRequestID:     true,
		EnableRecover:       true,
		EnableHelmet:        true,
		EnableCompress:      true,
		RequestTimeout:      30 * time.Second,
	}
}

// Server wraps a fiber.App with the application defaults.
type Server struct {
	app *fiber.App
	cfg *Config
}

// NewServer creates a server using the provided configuration.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server: config is required")
	}
	if cfg.Config == nil {
		return nil, fmt.Errorf("server: runtime config is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("server: logger is required")
	}

	errorHandler := cfg.ErrorHandler
	if errorHandler == nil {
		errorHandler = ErrorHandler(cfg.Logger)
	}

	app := fiber.New(fiber.Config{
		DisableDefaultDate:    true,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.RequestTimeout,
		WriteTimeout:          cfg.RequestTimeout,
		ErrorHandler:          errorHandler,
	})

	if cfg.EnableRecover {
		app.Use(fiberrecover.New())
	}
	if cfg.EnableRequestID {
		app.Use(requestid.New())
	}
	if cfg.EnableHelmet {
		app.Use(helmet.New())
	}
	if cfg.EnableCompress {
		app.Use(compress.New())
	}
	if cfg.EnableRequestLogger {
		app.Use(middleware.RequestLogger(cfg.Logger))
	}

	return &Server{app: app, cfg: cfg}, nil
}

// App exposes the underlying fiber application for route registration.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start blocks serving HTTP on the configured port.
func (s *Server) Start() error {
	return s.app.Listen(":" + s.cfg.Config.Port)
}

// StartAsync serves HTTP on a background goroutine, logging a fatal listen error.
func (s *Server) StartAsync() error {
	go func() {
		if err := s.Start(); err != nil {
			s.cfg.Logger.Error("http server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// ErrorHandler renders unhandled errors as JSON.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		log.Error("request failed",
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.String("method", c.Method()),
			zap.Int("status", code),
		)

		return c.Status(code).JSON(fiber.Map{
			"error":   "request_failed",
			"message": err.Error(),
		})
	}
}
