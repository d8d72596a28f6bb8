package handlers

import (
	"context"
	"errors"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// IPOReader is the read side served over HTTP. *services.CachedIPOService
// implements it.
type IPOReader interface {
	ListIPOs(ctx context.Context, filter models.IPOFilter) ([]models.IPOListItem, error)
	GetIPODetail(ctx context.Context, id uuid.UUID) (*models.IPODetail, error)
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	ListNews(ctx context.Context, limit int) ([]models.IPONews, error)
}

type IPOHandler struct {
	Service IPOReader
}

func NewIPOHandler(service IPOReader) *IPOHandler {
	return &IPOHandler{Service: service}
}

func (h *IPOHandler) GetIPOs(c *fiber.Ctx) error {
	filter := models.IPOFilter{
		Status:   models.IPOStatus(c.Query("status")),
		Exchange: models.Exchange(c.Query("exchange")),
		Search:   c.Query("search"),
		Limit:    c.QueryInt("limit"),
		Offset:   c.QueryInt("offset"),
	}

	ipos, err := h.Service.ListIPOs(c.UserContext(), filter)
	if errors.Is(err, services.ErrInvalidFilter) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	if ipos == nil {
		ipos = []models.IPOListItem{}
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    ipos,
		"count":   len(ipos),
	})
}

func (h *IPOHandler) GetIPOByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid IPO ID format",
		})
	}

	ipo, err := h.Service.GetIPODetail(c.UserContext(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	if ipo == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "IPO not found",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    ipo,
	})
}

// GetDashboard returns upcoming, ongoing and completed IPOs with totals
func (h *IPOHandler) GetDashboard(c *fiber.Ctx) error {
	dashboard, err := h.Service.Dashboard(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dashboard,
	})
}

func (h *IPOHandler) GetNews(c *fiber.Ctx) error {
	news, err := h.Service.ListNews(c.UserContext(), c.QueryInt("limit"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	if news == nil {
		news = []models.IPONews{}
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    news,
		"count":   len(news),
	})
}
