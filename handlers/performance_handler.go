package handlers

import (
	"context"
	"database/sql"

	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/gofiber/fiber/v2"
)

// MetricsSource is any service that tracks request metrics.
type MetricsSource interface {
	GetServiceMetrics() *shared.ServiceMetrics
}

// DBStatsSource reports connection pool statistics. *sql.DB implements it.
type DBStatsSource interface {
	Stats() sql.DBStats
}

// CacheAdmin clears cached listings.
type CacheAdmin interface {
	InvalidateAllIPOCache(ctx context.Context)
	CacheBackend() string
}

type PerformanceHandler struct {
	Sources []MetricsSource
	DB      DBStatsSource
	Cache   CacheAdmin
}

func NewPerformanceHandler(db DBStatsSource, cache CacheAdmin, sources ...MetricsSource) *PerformanceHandler {
	return &PerformanceHandler{Sources: sources, DB: db, Cache: cache}
}

// GetPerformanceMetrics returns per-service request metrics and pool stats
func (h *PerformanceHandler) GetPerformanceMetrics(c *fiber.Ctx) error {
	metrics := make(map[string]interface{})

	serviceMetrics := make(map[string]interface{}, len(h.Sources))
	for _, source := range h.Sources {
		snapshot := source.GetServiceMetrics().Snapshot()
		serviceMetrics[snapshot["service_name"].(string)] = snapshot
	}
	metrics["services"] = serviceMetrics

	if h.DB != nil {
		dbStats := h.DB.Stats()
		metrics["database_stats"] = map[string]interface{}{
			"open_connections":    dbStats.OpenConnections,
			"in_use":              dbStats.InUse,
			"idle":                dbStats.Idle,
			"wait_count":          dbStats.WaitCount,
			"wait_duration_ms":    dbStats.WaitDuration.Milliseconds(),
			"max_idle_closed":     dbStats.MaxIdleClosed,
			"max_lifetime_closed": dbStats.MaxLifetimeClosed,
		}
	}

	if h.Cache != nil {
		metrics["cache_backend"] = h.Cache.CacheBackend()
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    metrics,
	})
}

// ClearCache clears all cached listings
func (h *PerformanceHandler) ClearCache(c *fiber.Ctx) error {
	if h.Cache == nil {
		return c.JSON(fiber.Map{
			"success": false,
			"message": "Cache service not available",
		})
	}

	h.Cache.InvalidateAllIPOCache(c.UserContext())
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cache cleared successfully",
	})
}
