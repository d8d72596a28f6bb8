package services

import (
	"context"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/google/uuid"
)

// IPORepository is the storage the reconciler writes through.
// *database.Store implements it.
type IPORepository interface {
	GetOrCreateCompany(ctx context.Context, company *models.Company) (*models.Company, bool, error)
	GetIPOByCompany(ctx context.Context, companyID uuid.UUID) (*models.IPO, error)
	UpsertIPO(ctx context.Context, ipo *models.IPO) (bool, error)
}

// ProfileRepository stores enrichment fetched for new companies.
type ProfileRepository interface {
	UpdateCompanyProfile(ctx context.Context, companyID uuid.UUID, update models.CompanyProfileUpdate) error
}

// SampleDataRepository is what sample data generation needs beyond the
// reconciler's storage.
type SampleDataRepository interface {
	GetOrCreateCompany(ctx context.Context, company *models.Company) (*models.Company, bool, error)
	InsertIPOIfAbsent(ctx context.Context, ipo *models.IPO) (bool, error)
	UpsertMarketData(ctx context.Context, data *models.MarketData) error
	UpsertFinancialMetrics(ctx context.Context, metrics *models.FinancialMetrics) error
}

// IPOReadRepository backs the listing, detail and dashboard queries.
type IPOReadRepository interface {
	ListIPOs(ctx context.Context, filter models.IPOFilter) ([]models.IPOListItem, error)
	GetIPODetail(ctx context.Context, id uuid.UUID, newsLimit int) (*models.IPODetail, error)
	ListNews(ctx context.Context, limit int) ([]models.IPONews, error)
	Counts(ctx context.Context) (models.EntityCounts, error)
}

// MarketSignalRepository receives scraped grey market figures.
type MarketSignalRepository interface {
	ListIPOReferences(ctx context.Context) ([]models.IPOReference, error)
	UpdateMarketSignals(ctx context.Context, ipoID uuid.UUID, gmp float64, subscription *float64) error
}

// NewsRepository stores articles matched to IPOs.
type NewsRepository interface {
	ListIPOReferences(ctx context.Context) ([]models.IPOReference, error)
	InsertNews(ctx context.Context, news *models.IPONews) (bool, error)
}

// StatusRepository re-derives stored statuses from dates.
type StatusRepository interface {
	RefreshStatuses(ctx context.Context, today time.Time) (int64, error)
}
