package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports liveness and database reachability.
type HealthHandler struct {
	CheckDatabase func(ctx context.Context) error
}

func NewHealthHandler(checkDatabase func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{CheckDatabase: checkDatabase}
}

func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	response := fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	}

	if h.CheckDatabase != nil {
		if err := h.CheckDatabase(c.UserContext()); err != nil {
			response["status"] = "degraded"
			response["database"] = err.Error()
			return c.Status(fiber.StatusServiceUnavailable).JSON(response)
		}
		response["database"] = "ok"
	}
	return c.JSON(response)
}
