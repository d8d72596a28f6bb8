package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
)

// CountsReader reports stored row counts.
type CountsReader interface {
	Counts(ctx context.Context) (models.EntityCounts, error)
}

// SyncReporter exposes the most recent sync. *SyncService implements it.
type SyncReporter interface {
	IsConfigured() bool
	LastResult() *models.SyncResult
}

// SchedulerReporter is the part of the sync scheduler the status needs.
type SchedulerReporter interface {
	IsRunning() bool
	LastRun() time.Time
}

// StatusService assembles the system status shown by the API and the CLI.
type StatusService struct {
	counts       CountsReader
	sync         SyncReporter
	integrations map[string]bool
	cacheBackend string
	scheduler    SchedulerReporter
	clock        shared.Clock
}

// NewStatusService copies integrations. The "finnhub" entry is always
// taken from sync.
func NewStatusService(counts CountsReader, sync SyncReporter, integrations map[string]bool, cacheBackend string, clock shared.Clock) *StatusService {
	if clock == nil {
		clock = shared.RealClock{}
	}
	copied := make(map[string]bool, len(integrations)+1)
	for name, configured := range integrations {
		copied[name] = configured
	}
	return &StatusService{
		counts:       counts,
		sync:         sync,
		integrations: copied,
		cacheBackend: cacheBackend,
		clock:        clock,
	}
}

// SetScheduler attaches the sync scheduler once it exists. Passing nil
// removes it from the status.
func (s *StatusService) SetScheduler(scheduler SchedulerReporter) {
	s.scheduler = scheduler
}

func (s *StatusService) Status(ctx context.Context) (*models.SystemStatus, error) {
	counts, err := s.counts.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count stored records: %w", err)
	}

	integrations := make(map[string]bool, len(s.integrations)+1)
	for name, configured := range s.integrations {
		integrations[name] = configured
	}
	integrations["finnhub"] = s.sync.IsConfigured()

	status := &models.SystemStatus{
		Integrations: integrations,
		Counts:       counts,
		CacheBackend: s.cacheBackend,
		LastSync:     s.sync.LastResult(),
		CheckedAt:    s.clock.Now(),
	}

	if s.scheduler != nil {
		state := &models.SchedulerState{Running: s.scheduler.IsRunning()}
		if lastRun := s.scheduler.LastRun(); !lastRun.IsZero() {
			state.LastRun = &lastRun
		}
		status.Scheduler = state
	}
	return status, nil
}
