package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReadRepo struct {
	mu       sync.Mutex
	items    []models.IPOListItem
	detail   *models.IPODetail
	news     []models.IPONews
	counts   models.EntityCounts
	filters  []models.IPOFilter
	listErr  error
	listHits int
}

func (r *fakeReadRepo) ListIPOs(_ context.Context, filter models.IPOFilter) ([]models.IPOListItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listHits++
	r.filters = append(r.filters, filter)
	if r.listErr != nil {
		return nil, r.listErr
	}

	var out []models.IPOListItem
	for _, item := range r.items {
		if filter.Status == "" || item.Status == filter.Status {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeReadRepo) GetIPODetail(_ context.Context, id uuid.UUID, _ int) (*models.IPODetail, error) {
	if r.detail == nil || r.detail.IPO.ID != id {
		return nil, nil
	}
	copied := *r.detail
	return &copied, nil
}

func (r *fakeReadRepo) ListNews(_ context.Context, limit int) ([]models.IPONews, error) {
	if limit < len(r.news) {
		return r.news[:limit], nil
	}
	return r.news, nil
}

func (r *fakeReadRepo) Counts(context.Context) (models.EntityCounts, error) {
	return r.counts, nil
}

func (r *fakeReadRepo) hits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listHits
}

func listItem(status models.IPOStatus, open, close time.Time) models.IPOListItem {
	return models.IPOListItem{
		IPO: models.IPO{
			ID:           uuid.New(),
			Status:       status,
			Exchange:     models.ExchangeNSE,
			PriceBandMin: 100,
			PriceBandMax: 120,
			OpenDate:     open,
			CloseDate:    close,
		},
		CompanyName: "Alpha Corp",
	}
}

func TestNormalizeFilter(t *testing.T) {
	filter, err := NormalizeFilter(models.IPOFilter{Status: " Upcoming ", Exchange: "nse", Search: "  alpha "})
	require.NoError(t, err)
	assert.Equal(t, models.IPOStatusUpcoming, filter.Status)
	assert.Equal(t, models.ExchangeNSE, filter.Exchange)
	assert.Equal(t, "alpha", filter.Search)
	assert.Equal(t, DefaultListLimit, filter.Limit)

	filter, err = NormalizeFilter(models.IPOFilter{Limit: 10_000})
	require.NoError(t, err)
	assert.Equal(t, MaxListLimit, filter.Limit)

	for _, bad := range []models.IPOFilter{
		{Status: "listed"},
		{Exchange: "NYSE"},
		{Offset: -1},
	} {
		_, err := NormalizeFilter(bad)
		assert.ErrorIs(t, err, ErrInvalidFilter)
	}
}

func TestListIPOsFillsDisplayFields(t *testing.T) {
	today := models.CalendarDate(testNow)
	repo := &fakeReadRepo{items: []models.IPOListItem{
		listItem(models.IPOStatusOngoing, today.AddDate(0, 0, -1), today.AddDate(0, 0, 2)),
		listItem(models.IPOStatusUpcoming, today.AddDate(0, 0, 5), today.AddDate(0, 0, 8)),
	}}
	service := NewIPOService(repo, shared.NewManualClock(testNow), time.UTC)

	items, err := service.ListIPOs(context.Background(), models.IPOFilter{})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "₹100.00 - ₹120.00", items[0].PriceRange)
	require.NotNil(t, items[0].DaysToClose)
	assert.Equal(t, 2, *items[0].DaysToClose)
	assert.Nil(t, items[1].DaysToClose)
}

func TestListIPOsWrapsErrors(t *testing.T) {
	repo := &fakeReadRepo{listErr: errors.New("db down")}
	service := NewIPOService(repo, shared.NewManualClock(testNow), time.UTC)

	_, err := service.ListIPOs(context.Background(), models.IPOFilter{})
	assert.ErrorContains(t, err, "db down")

	_, err = service.ListIPOs(context.Background(), models.IPOFilter{Status: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestGetIPODetail(t *testing.T) {
	today := models.CalendarDate(testNow)
	item := listItem(models.IPOStatusOngoing, today, today.AddDate(0, 0, 3))
	repo := &fakeReadRepo{detail: &models.IPODetail{IPO: item.IPO}}
	service := NewIPOService(repo, shared.NewManualClock(testNow), time.UTC)

	detail, err := service.GetIPODetail(context.Background(), item.ID)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.True(t, detail.IsActive)
	assert.Equal(t, "₹100.00 - ₹120.00", detail.PriceRange)

	missing, err := service.GetIPODetail(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDashboardBuckets(t *testing.T) {
	today := models.CalendarDate(testNow)
	repo := &fakeReadRepo{
		items: []models.IPOListItem{
			listItem(models.IPOStatusUpcoming, today.AddDate(0, 0, 5), today.AddDate(0, 0, 8)),
			listItem(models.IPOStatusUpcoming, today.AddDate(0, 0, 9), today.AddDate(0, 0, 12)),
			listItem(models.IPOStatusOngoing, today, today.AddDate(0, 0, 3)),
			listItem(models.IPOStatusCompleted, today.AddDate(0, 0, -9), today.AddDate(0, 0, -6)),
		},
		counts: models.EntityCounts{Companies: 4, IPOs: 4},
	}
	service := NewIPOService(repo, shared.NewManualClock(testNow), time.UTC)

	dashboard, err := service.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Len(t, dashboard.Upcoming, 2)
	assert.Len(t, dashboard.Ongoing, 1)
	assert.Len(t, dashboard.Completed, 1)
	assert.Equal(t, 4, dashboard.Counts.IPOs)

	for _, filter := range repo.filters {
		assert.Equal(t, dashboardBucketLimit, filter.Limit)
	}
}

func TestListNewsClampsLimit(t *testing.T) {
	repo := &fakeReadRepo{news: make([]models.IPONews, 80)}
	service := NewIPOService(repo, nil, nil)

	news, err := service.ListNews(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, news, DefaultListLimit)

	news, err = service.ListNews(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, news, 5)
}
