package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/mmoforge/skillstore/internal/config"
	"github.com/mmoforge/skillstore/internal/database"
	"github.com/mmoforge/skillstore/internal/handlers"
	"github.com/mmoforge/skillstore/internal/logging"
	"github.com/mmoforge/skillstore/internal/middleware"
	"github.com/mmoforge/skillstore/internal/routes"
	"github.com/mmoforge/skillstore/internal/store"
)

func main() {
	cfg := config.Load()

	// Sentry error tracking, wired into logging when a DSN is present.
	sentryEnabled := false
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			sentryEnabled = true
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Structured logging (JSON to stdout, errors forwarded to Sentry)
	if sentryEnabled {
		logging.Setup(cfg.Debug, logging.NewSentryHandler())
	} else {
		logging.Setup(cfg.Debug)
	}

	if cfg.DBPassword == "" {
		slog.Warn("DB_PASSWORD is empty, connecting without a password")
	}

	// Database: three pools, then schema check
	pools, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	st, err := store.New(cfg, pools)
	if err != nil {
		slog.Error("schema check failed", "error", err)
		os.Exit(1)
	}

	// Scheduled inactive-user purge (opt-in)
	purgeDone := make(chan struct{})
	if cfg.ScheduledPurge {
		st.StartPurgeScheduler(purgeDone)
		slog.Info("scheduled purge enabled", "months", cfg.PurgeMonths)
	}

	// Handlers
	healthHandler := handlers.NewHealthHandler(st)
	leaderboardHandler := handlers.NewLeaderboardHandler(st)
	maintenanceHandler := handlers.NewMaintenanceHandler(st)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	if sentryEnabled {
		app.Use(sentryfiber.New(sentryfiber.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))

	routes.Setup(app, cfg, healthHandler, leaderboardHandler, maintenanceHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(purgeDone)
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	st.Close()
	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{"error": true, "message": message})
}
