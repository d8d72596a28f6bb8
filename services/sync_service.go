package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrSyncInProgress is returned when another sync holds the lock.
	ErrSyncInProgress = errors.New("IPO sync already in progress")
	// ErrInvalidSyncWindow is returned when the start date is after the end date.
	ErrInvalidSyncWindow = errors.New("from date must not be after to date")
)

const profileEnrichmentConcurrency = 4

// CalendarSource is the remote IPO calendar. *FinnhubService implements it.
type CalendarSource interface {
	IsConfigured() bool
	GetIPOCalendar(ctx context.Context, from, to time.Time) []models.FinnhubIPO
	GetCompanyProfile(ctx context.Context, symbol string) (*models.FinnhubCompanyProfile, error)
}

// CacheInvalidator drops cached listings after storage changes.
type CacheInvalidator interface {
	InvalidateAllIPOCache(ctx context.Context)
}

// SyncOptions selects the calendar window. Zero dates use the default
// window. Force generates sample data when the calendar is unconfigured.
type SyncOptions struct {
	From  time.Time
	To    time.Time
	Force bool
}

// SyncService runs fetch, normalize and reconcile as one guarded operation.
type SyncService struct {
	source      CalendarSource
	reconciler  *Reconciler
	sampleData  *SampleDataService
	profiles    ProfileRepository
	cache       CacheInvalidator
	clock       shared.Clock
	auditLogger *IPOAuditLogger

	running    sync.Mutex
	resultMu   sync.RWMutex
	lastResult *models.SyncResult
}

// NewSyncService wires the sync pipeline. sampleData, profiles and cache may
// be nil to disable sample generation, enrichment and cache invalidation.
func NewSyncService(source CalendarSource, reconciler *Reconciler, sampleData *SampleDataService, profiles ProfileRepository, cache CacheInvalidator, clock shared.Clock) *SyncService {
	if clock == nil {
		clock = shared.RealClock{}
	}
	return &SyncService{
		source:      source,
		reconciler:  reconciler,
		sampleData:  sampleData,
		profiles:    profiles,
		cache:       cache,
		clock:       clock,
		auditLogger: NewIPOAuditLogger("sync"),
	}
}

// IsConfigured reports whether the remote calendar can be used
func (s *SyncService) IsConfigured() bool {
	return s.source.IsConfigured()
}

// LastResult returns a copy of the most recent completed run, or nil
func (s *SyncService) LastResult() *models.SyncResult {
	s.resultMu.RLock()
	defer s.resultMu.RUnlock()

	if s.lastResult == nil {
		return nil
	}
	result := *s.lastResult
	return &result
}

// Sync fetches, normalizes and reconciles the calendar for the window. Record
// and remote failures only increment the error counter. The returned error
// is limited to ErrSyncInProgress, ErrInvalidSyncWindow,
// ErrFinnhubNotConfigured and sample data failures.
func (s *SyncService) Sync(ctx context.Context, opts SyncOptions) (*models.SyncResult, error) {
	if !s.running.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.running.Unlock()

	if !opts.From.IsZero() && !opts.To.IsZero() && opts.From.After(opts.To) {
		return nil, ErrInvalidSyncWindow
	}

	result := &models.SyncResult{
		Mode:      models.SyncModeAPI,
		StartedAt: s.clock.Now(),
	}
	result.From, result.To = s.window(opts)

	logger := logrus.WithFields(logrus.Fields{
		"component": "SyncService",
		"from":      result.From.Format(models.DateLayout),
		"to":        result.To.Format(models.DateLayout),
		"force":     opts.Force,
	})

	if !s.source.IsConfigured() {
		if !opts.Force || s.sampleData == nil {
			logger.Warn("IPO calendar not configured, skipping sync")
			return nil, ErrFinnhubNotConfigured
		}

		logger.Info("IPO calendar not configured, generating sample data")
		result.Mode = models.SyncModeSample
		stats, err := s.sampleData.Generate(ctx)
		result.Stats = stats
		if err != nil {
			return nil, fmt.Errorf("failed to generate sample data: %w", err)
		}
	} else {
		result.Stats = s.syncFromCalendar(ctx, result.From, result.To)
	}

	result.Duration = s.clock.Now().Sub(result.StartedAt)

	if result.Stats.Created+result.Stats.Updated > 0 && s.cache != nil {
		s.cache.InvalidateAllIPOCache(ctx)
	}

	s.resultMu.Lock()
	s.lastResult = result
	s.resultMu.Unlock()

	logger.WithFields(logrus.Fields{
		"mode":      result.Mode,
		"fetched":   result.Stats.Fetched,
		"processed": result.Stats.Processed,
		"created":   result.Stats.Created,
		"updated":   result.Stats.Updated,
		"errors":    result.Stats.Errors,
		"enriched":  result.Stats.Enriched,
		"duration":  result.Duration,
	}).Info("IPO sync completed")

	copied := *result
	return &copied, nil
}

func (s *SyncService) window(opts SyncOptions) (time.Time, time.Time) {
	today := s.reconciler.Today()
	from, to := opts.From, opts.To
	if from.IsZero() {
		from = today
	}
	if to.IsZero() {
		to = today.Add(DefaultCalendarWindow)
	}
	return models.CalendarDate(from), models.CalendarDate(to)
}

// syncFromCalendar never panics past its boundary; a panic is counted as one error.
func (s *SyncService) syncFromCalendar(ctx context.Context, from, to time.Time) (stats models.SyncStats) {
	logger := logrus.WithField("component", "SyncService")

	defer func() {
		if recovered := recover(); recovered != nil {
			stats.Errors++
			logger.WithField("panic", recovered).Error("IPO sync aborted by panic")
		}
	}()

	raw := s.source.GetIPOCalendar(ctx, from, to)
	stats.Fetched = len(raw)
	if len(raw) == 0 {
		logger.Warn("No IPO data fetched from calendar")
		return stats
	}

	records := NormalizeIPOCalendar(raw)
	stats.Processed = len(records)

	var newCompanies []*models.Company
	var sampleErrors []error
	for _, record := range records {
		if ctx.Err() != nil {
			logger.WithError(ctx.Err()).Warn("IPO sync cancelled")
			break
		}

		result, err := s.reconcileRecord(ctx, record)
		if err != nil {
			stats.Errors++
			if len(sampleErrors) < 3 {
				sampleErrors = append(sampleErrors, err)
			}
			logger.WithError(err).WithField("symbol", record.Symbol).Error("Failed to reconcile IPO record")
			continue
		}

		if result.Created {
			stats.Created++
		} else {
			stats.Updated++
		}
		if result.CompanyCreated {
			newCompanies = append(newCompanies, result.Company)
		}
	}

	stats.Enriched = s.enrichProfiles(ctx, newCompanies)
	s.auditLogger.LogBatchOperation("SYNC", stats, sampleErrors)

	if stats.Errors > 0 {
		logger.Warn(shared.BuildBatchErrorSummary(stats.Created+stats.Updated, stats.Errors, sampleErrors))
	}
	return stats
}

func (s *SyncService) reconcileRecord(ctx context.Context, record models.IPORecord) (result *ReconcileResult, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = shared.NewServiceError(shared.ErrorCategoryProcessing, "RECONCILE_PANIC",
				fmt.Sprintf("panic while reconciling %s: %v", record.Symbol, recovered), "SyncService", "Reconcile", false, nil)
		}
	}()
	return s.reconciler.Reconcile(ctx, record)
}

// enrichProfiles replaces placeholder attributes of newly created companies
// with their Finnhub profile. Failures are logged and skipped.
func (s *SyncService) enrichProfiles(ctx context.Context, companies []*models.Company) int {
	if s.profiles == nil || len(companies) == 0 {
		return 0
	}

	var mu sync.Mutex
	enriched := 0

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(profileEnrichmentConcurrency)

	for _, company := range companies {
		company := company
		group.Go(func() error {
			logger := logrus.WithFields(logrus.Fields{
				"component": "SyncService",
				"symbol":    company.Symbol,
			})

			profile, err := s.source.GetCompanyProfile(groupCtx, company.Symbol)
			if err != nil {
				logger.WithError(err).Warn("Failed to fetch company profile")
				return nil
			}
			if profile == nil {
				return nil
			}

			update := models.CompanyProfileUpdate{
				Industry:     profile.FinnhubIndustry,
				Headquarters: profile.Country,
				Website:      profile.WebURL,
			}
			if err := s.profiles.UpdateCompanyProfile(groupCtx, company.ID, update); err != nil {
				logger.WithError(err).Warn("Failed to store company profile")
				return nil
			}

			mu.Lock()
			enriched++
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors.
	_ = group.Wait()
	return enriched
}
