package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/services"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/sirupsen/logrus"
)

// StatusRefreshJob moves stored IPOs through upcoming, ongoing and completed
// as their dates pass, without waiting for the next calendar sync.
type StatusRefreshJob struct {
	repo     services.StatusRepository
	cache    services.CacheInvalidator
	clock    shared.Clock
	location *time.Location
}

// NewStatusRefreshJob takes an optional cache to invalidate after changes.
func NewStatusRefreshJob(repo services.StatusRepository, cache services.CacheInvalidator, clock shared.Clock, location *time.Location) *StatusRefreshJob {
	if clock == nil {
		clock = shared.RealClock{}
	}
	if location == nil {
		location = time.Local
	}
	return &StatusRefreshJob{repo: repo, cache: cache, clock: clock, location: location}
}

func (j *StatusRefreshJob) Name() string { return "status_refresh" }

func (j *StatusRefreshJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	today := models.CalendarDate(j.clock.Now().In(j.location))
	changed, err := j.repo.RefreshStatuses(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to refresh IPO statuses: %w", err)
	}

	if changed > 0 && j.cache != nil {
		j.cache.InvalidateAllIPOCache(ctx)
	}

	logrus.WithFields(logrus.Fields{
		"component": "StatusRefreshJob",
		"today":     today.Format(models.DateLayout),
		"changed":   changed,
	}).Info("IPO status refresh completed")
	return nil
}
