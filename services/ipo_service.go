package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultListLimit     = 50
	MaxListLimit         = 200
	DefaultNewsLimit     = 20
	dashboardBucketLimit = 20
)

// ErrInvalidFilter wraps listing filters that cannot be applied.
var ErrInvalidFilter = errors.New("invalid IPO filter")

// IPOService serves the read side: listings, detail and dashboard.
type IPOService struct {
	repo           IPOReadRepository
	clock          shared.Clock
	location       *time.Location
	serviceMetrics *shared.ServiceMetrics
}

func NewIPOService(repo IPOReadRepository, clock shared.Clock, location *time.Location) *IPOService {
	if clock == nil {
		clock = shared.RealClock{}
	}
	if location == nil {
		location = time.Local
	}
	return &IPOService{
		repo:           repo,
		clock:          clock,
		location:       location,
		serviceMetrics: shared.NewServiceMetrics("IPO_Service"),
	}
}

func (s *IPOService) today() time.Time {
	return models.CalendarDate(s.clock.Now().In(s.location))
}

// NormalizeFilter validates enum values and clamps paging
func NormalizeFilter(filter models.IPOFilter) (models.IPOFilter, error) {
	filter.Status = models.IPOStatus(strings.ToLower(strings.TrimSpace(string(filter.Status))))
	filter.Exchange = models.Exchange(strings.ToUpper(strings.TrimSpace(string(filter.Exchange))))
	filter.Search = strings.TrimSpace(filter.Search)

	if filter.Status != "" && !filter.Status.Valid() {
		return filter, fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, filter.Status)
	}
	if filter.Exchange != "" && !filter.Exchange.Valid() {
		return filter, fmt.Errorf("%w: unknown exchange %q", ErrInvalidFilter, filter.Exchange)
	}
	if filter.Offset < 0 {
		return filter, fmt.Errorf("%w: offset must not be negative", ErrInvalidFilter)
	}

	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultListLimit
	case filter.Limit > MaxListLimit:
		filter.Limit = MaxListLimit
	}
	return filter, nil
}

// ListIPOs returns IPOs matching filter with display fields filled in
func (s *IPOService) ListIPOs(ctx context.Context, filter models.IPOFilter) ([]models.IPOListItem, error) {
	startTime := time.Now()

	filter, err := NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListIPOs(ctx, filter)
	s.serviceMetrics.RecordRequest(err == nil, time.Since(startTime))
	if err != nil {
		return nil, fmt.Errorf("failed to list IPOs: %w", err)
	}

	today := s.today()
	for i := range items {
		items[i].PriceRange = items[i].IPO.PriceRangeDisplay()
		items[i].DaysToClose = items[i].IPO.DaysToClose(today)
	}
	return items, nil
}

// GetIPODetail returns nil, nil when no IPO has the id
func (s *IPOService) GetIPODetail(ctx context.Context, id uuid.UUID) (*models.IPODetail, error) {
	startTime := time.Now()

	detail, err := s.repo.GetIPODetail(ctx, id, DefaultNewsLimit)
	s.serviceMetrics.RecordRequest(err == nil, time.Since(startTime))
	if err != nil {
		return nil, fmt.Errorf("failed to get IPO %s: %w", id, err)
	}
	if detail == nil {
		return nil, nil
	}

	detail.PriceRange = detail.IPO.PriceRangeDisplay()
	detail.IsActive = detail.IPO.IsActive(s.today())
	return detail, nil
}

// Dashboard groups the most recent IPOs by status alongside row counts
func (s *IPOService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	dashboard := &models.Dashboard{}

	buckets := []struct {
		status models.IPOStatus
		target *[]models.IPOListItem
	}{
		{models.IPOStatusUpcoming, &dashboard.Upcoming},
		{models.IPOStatusOngoing, &dashboard.Ongoing},
		{models.IPOStatusCompleted, &dashboard.Completed},
	}

	for _, bucket := range buckets {
		items, err := s.ListIPOs(ctx, models.IPOFilter{Status: bucket.status, Limit: dashboardBucketLimit})
		if err != nil {
			return nil, err
		}
		*bucket.target = items
	}

	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}
	dashboard.Counts = counts

	logrus.WithFields(logrus.Fields{
		"component": "IPOService",
		"upcoming":  len(dashboard.Upcoming),
		"ongoing":   len(dashboard.Ongoing),
		"completed": len(dashboard.Completed),
	}).Debug("Built dashboard")

	return dashboard, nil
}

// ListNews returns the latest IPO news
func (s *IPOService) ListNews(ctx context.Context, limit int) ([]models.IPONews, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}
	news, err := s.repo.ListNews(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	return news, nil
}

// Counts returns aggregate row counts
func (s *IPOService) Counts(ctx context.Context) (models.EntityCounts, error) {
	return s.repo.Counts(ctx)
}

// GetServiceMetrics returns query metrics
func (s *IPOService) GetServiceMetrics() *shared.ServiceMetrics {
	return s.serviceMetrics
}
