package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/mmoforge/skillstore/internal/config"
	"github.com/mmoforge/skillstore/internal/handlers"
	"github.com/mmoforge/skillstore/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	maintenanceHandler *handlers.MaintenanceHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Leaderboards and ranks (public, read-only)
	api.Get("/leaderboard", leaderboardHandler.Leaderboard)
	api.Get("/leaderboard/:skill", leaderboardHandler.Leaderboard)
	api.Get("/rank/:player", leaderboardHandler.Rank)

	// Maintenance (admin only; purges serialize on the store's lock)
	admin := api.Group("/admin", middleware.AdminRequired(cfg))
	admin.Post("/purge/powerless", maintenanceHandler.PurgePowerless)
	admin.Post("/purge/old", maintenanceHandler.PurgeOld)
	admin.Delete("/users/:name", maintenanceHandler.RemoveUser)
}
