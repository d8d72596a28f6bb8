package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fenilmodi00/ipo-tracker/jobs"
	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/services"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// SyncRunner starts a calendar sync. *services.SyncService implements it.
type SyncRunner interface {
	Sync(ctx context.Context, opts services.SyncOptions) (*models.SyncResult, error)
}

// StatusProvider reports integration state and row counts.
type StatusProvider interface {
	Status(ctx context.Context) (*models.SystemStatus, error)
}

type GMPTrigger interface {
	Update(ctx context.Context) (services.GMPUpdateStats, error)
}

type NewsTrigger interface {
	Update(ctx context.Context) (services.NewsUpdateStats, error)
}

type AdminHandler struct {
	Sync    SyncRunner
	Status  StatusProvider
	GMPJob  GMPTrigger
	NewsJob NewsTrigger
}

func NewAdminHandler(sync SyncRunner, status StatusProvider, gmpJob GMPTrigger, newsJob NewsTrigger) *AdminHandler {
	return &AdminHandler{
		Sync:    sync,
		Status:  status,
		GMPJob:  gmpJob,
		NewsJob: newsJob,
	}
}

type syncRequest struct {
	FromDate string `json:"from_date" form:"from_date" query:"from_date"`
	ToDate   string `json:"to_date" form:"to_date" query:"to_date"`
	Force    bool   `json:"force" form:"force" query:"force"`
}

func syncError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

func parseOptionalDate(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q, expected YYYY-MM-DD", field, value)
	}
	return parsed, nil
}

// SyncIPOData runs a calendar sync. Only POST is accepted. from_date, to_date
// and force may come from the query string or a JSON or form body.
func (h *AdminHandler) SyncIPOData(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		c.Set(fiber.HeaderAllow, fiber.MethodPost)
		return syncError(c, fiber.StatusMethodNotAllowed, "Only POST method allowed")
	}

	var req syncRequest
	if err := c.QueryParser(&req); err != nil {
		return syncError(c, fiber.StatusBadRequest, "Invalid query parameters")
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return syncError(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}

	from, err := parseOptionalDate(req.FromDate, "from_date")
	if err != nil {
		return syncError(c, fiber.StatusBadRequest, err.Error())
	}
	to, err := parseOptionalDate(req.ToDate, "to_date")
	if err != nil {
		return syncError(c, fiber.StatusBadRequest, err.Error())
	}

	logrus.WithFields(logrus.Fields{
		"component": "AdminHandler",
		"from_date": req.FromDate,
		"to_date":   req.ToDate,
		"force":     req.Force,
	}).Info("Manual IPO sync triggered via API")

	result, err := h.Sync.Sync(c.UserContext(), services.SyncOptions{From: from, To: to, Force: req.Force})
	switch {
	case errors.Is(err, services.ErrSyncInProgress):
		return syncError(c, fiber.StatusConflict, "An IPO sync is already in progress")
	case errors.Is(err, services.ErrInvalidSyncWindow):
		return syncError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrFinnhubNotConfigured):
		return syncError(c, fiber.StatusBadRequest,
			"Finnhub API key not configured. Set FINNHUB_API_KEY or pass force=true to create sample data")
	case err != nil:
		return syncError(c, fiber.StatusInternalServerError, "Error syncing IPO data: "+err.Error())
	}

	stats := result.Stats
	message := fmt.Sprintf("IPO data synced: %d created, %d updated, %d errors",
		stats.Created, stats.Updated, stats.Errors)
	if result.Mode == models.SyncModeSample {
		message = fmt.Sprintf("Sample IPO data created: %d created (Finnhub API key not configured)", stats.Created)
	}

	return c.JSON(fiber.Map{
		"status":      "success",
		"message":     message,
		"mode":        result.Mode,
		"stats":       stats,
		"from_date":   result.From.Format(models.DateLayout),
		"to_date":     result.To.Format(models.DateLayout),
		"duration_ms": result.Duration.Milliseconds(),
	})
}

// GetStatus reports which integrations are configured and how many rows are stored
func (h *AdminHandler) GetStatus(c *fiber.Ctx) error {
	report, err := h.Status.Status(c.UserContext())
	if err != nil {
		return syncError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(struct {
		Status string `json:"status"`
		*models.SystemStatus
	}{Status: "success", SystemStatus: report})
}

// TriggerGMPUpdate manually runs the GMP update job
func (h *AdminHandler) TriggerGMPUpdate(c *fiber.Ctx) error {
	logrus.WithField("component", "AdminHandler").Info("Manual GMP update triggered via admin endpoint")

	startTime := time.Now()
	stats, err := h.GMPJob.Update(c.UserContext())
	return jobResponse(c, "GMP update job completed", stats, err, time.Since(startTime))
}

// TriggerNewsUpdate manually runs the news update job
func (h *AdminHandler) TriggerNewsUpdate(c *fiber.Ctx) error {
	logrus.WithField("component", "AdminHandler").Info("Manual news update triggered via admin endpoint")

	startTime := time.Now()
	stats, err := h.NewsJob.Update(c.UserContext())
	return jobResponse(c, "News update job completed", stats, err, time.Since(startTime))
}

func jobResponse(c *fiber.Ctx, message string, stats interface{}, err error, duration time.Duration) error {
	switch {
	case errors.Is(err, jobs.ErrJobBusy):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	case err != nil:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   message,
		"data":      stats,
		"duration":  duration.String(),
		"timestamp": time.Now(),
	})
}
