package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/services"
	"github.com/sirupsen/logrus"
)

const ipoSyncTimeout = 15 * time.Minute

// Syncer runs one calendar sync. *services.SyncService implements it.
type Syncer interface {
	Sync(ctx context.Context, opts services.SyncOptions) (*models.SyncResult, error)
}

// IPOSyncJob pulls the default calendar window into storage.
type IPOSyncJob struct {
	syncer  Syncer
	timeout time.Duration
}

func NewIPOSyncJob(syncer Syncer) *IPOSyncJob {
	return &IPOSyncJob{syncer: syncer, timeout: ipoSyncTimeout}
}

func (j *IPOSyncJob) Name() string { return "ipo_sync" }

// Run treats a missing API key as a successful no-op so the scheduler does
// not retry until the next interval.
func (j *IPOSyncJob) Run(ctx context.Context) error {
	logger := logrus.WithField("component", "IPOSyncJob")
	logger.Info("Starting scheduled IPO sync")

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	result, err := j.syncer.Sync(ctx, services.SyncOptions{})
	switch {
	case errors.Is(err, services.ErrFinnhubNotConfigured):
		logger.Warn("Finnhub API key not configured, scheduled sync skipped")
		return nil
	case err != nil:
		return err
	}

	stats := result.Stats
	logger.WithFields(logrus.Fields{
		"fetched":   stats.Fetched,
		"processed": stats.Processed,
		"created":   stats.Created,
		"updated":   stats.Updated,
		"errors":    stats.Errors,
		"duration":  result.Duration,
	}).Infof("Scheduled IPO sync completed: %d created, %d updated, %d errors",
		stats.Created, stats.Updated, stats.Errors)
	return nil
}
