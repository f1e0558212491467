package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/idforge/idforge/pkg/config"
	"github.com/idforge/idforge/pkg/errx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.Server.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting idforge server")

	container := NewContainer(cfg, logger)
	defer container.Cleanup()

	app := fiber.New(fiber.Config{
		AppName:               "idforge",
		DisableStartupMessage: true,
		ErrorHandler:          newErrorHandler(logger),
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:  "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Get("/health", healthCheckHandler(container))

	container.IAM.AuthHandlers.RegisterRoutes(app, container.IAM.AuthMiddleware)
	container.IAM.OrgHandlers.RegisterRoutes(app, container.IAM.AuthMiddleware)
	container.IAM.TeamHandlers.RegisterRoutes(app, container.IAM.AuthMiddleware)
	container.IAM.GroupHandlers.RegisterRoutes(app, container.IAM.AuthMiddleware)
	logger.Info("routes registered")

	app.Use(notFoundHandler)

	startServer(app, cfg, logger)
}

func newLogger(level string) *zap.Logger {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"service": "idforge",
		}
		status := fiber.StatusOK

		if err := container.DB.PingContext(c.Context()); err != nil {
			health["db"] = "unhealthy"
			health["status"] = "degraded"
			status = fiber.StatusServiceUnavailable
		} else {
			health["db"] = "healthy"
		}

		if err := container.Redis.Ping(c.Context()).Err(); err != nil {
			health["redis"] = "unhealthy"
			health["status"] = "degraded"
			status = fiber.StatusServiceUnavailable
		} else {
			health["redis"] = "healthy"
		}

		return c.Status(status).JSON(health)
	}
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(errx.PublicError{
		Status:  fiber.StatusNotFound,
		Class:   "not_found",
		Message: "Not found",
	})
}

// newErrorHandler logs the detailed error server-side and answers with the
// collapsed public shape. Cause strings, error codes and details never cross
// the wire.
func newErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		public := errx.Public(err)

		fields := []zap.Field{
			zap.String("path", c.Path()),
			zap.String("method", c.Method()),
			zap.String("request_id", c.Get("X-Request-ID")),
			zap.Int("status", public.Status),
			zap.Error(err),
		}
		if e, ok := err.(*errx.Error); ok {
			fields = append(fields, zap.String("code", e.Code), zap.String("type", string(e.Type)))
		}

		if public.Status >= fiber.StatusInternalServerError {
			logger.Error("request failed", fields...)
		} else {
			logger.Info("request rejected", fields...)
		}

		return c.Status(public.Status).JSON(public)
	}
}

func startServer(app *fiber.App, cfg *config.Config, logger *zap.Logger) {
	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("shutting down", zap.String("signal", sig.String()))

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
