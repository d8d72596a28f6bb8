package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Handlers groups everything mounted by RegisterRoutes. Nil members are
// skipped.
type Handlers struct {
	IPO         *IPOHandler
	Admin       *AdminHandler
	Chat        *ChatHandler
	Performance *PerformanceHandler
	Health      *HealthHandler
}

// NewApp returns a fiber app with panic recovery, access logging and CORS.
func NewApp(accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "ipo-tracker",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if accessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New())
	return app
}

func RegisterRoutes(app *fiber.App, h Handlers) {
	if h.Health != nil {
		app.Get("/health", h.Health.GetHealth)
	}
	if h.Chat != nil {
		app.Get("/get-response", h.Chat.GetResponse)
		app.Post("/get-response", h.Chat.GetResponse)
	}

	if h.Admin != nil {
		app.All("/api/sync-ipo-data", h.Admin.SyncIPOData)
		app.Get("/api/status", h.Admin.GetStatus)
	}

	api := app.Group("/api/v1")

	if h.IPO != nil {
		api.Get("/ipos", h.IPO.GetIPOs)
		api.Get("/ipos/:id", h.IPO.GetIPOByID)
		api.Get("/dashboard", h.IPO.GetDashboard)
		api.Get("/news", h.IPO.GetNews)
	}

	admin := api.Group("/admin")
	if h.Admin != nil {
		admin.Post("/sync", h.Admin.SyncIPOData)
		admin.Get("/status", h.Admin.GetStatus)
		if h.Admin.GMPJob != nil {
			admin.Post("/gmp/update", h.Admin.TriggerGMPUpdate)
		}
		if h.Admin.NewsJob != nil {
			admin.Post("/news/update", h.Admin.TriggerNewsUpdate)
		}
	}
	if h.Performance != nil {
		admin.Get("/metrics", h.Performance.GetPerformanceMetrics)
		admin.Delete("/cache", h.Performance.ClearCache)
	}
}
