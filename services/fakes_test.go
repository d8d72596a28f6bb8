package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/google/uuid"
)

// memRepo is an in-memory stand-in for database.Store.
type memRepo struct {
	mu sync.Mutex

	companies  map[string]*models.Company
	ipos       map[uuid.UUID]*models.IPO // keyed by company id
	marketData map[uuid.UUID]*models.MarketData
	financials map[uuid.UUID]*models.FinancialMetrics
	profiles   map[uuid.UUID]models.CompanyProfileUpdate
	news       []models.IPONews

	writes      int
	failSymbols map[string]bool
	panicSymbol string
}

func newMemRepo() *memRepo {
	return &memRepo{
		companies:   make(map[string]*models.Company),
		ipos:        make(map[uuid.UUID]*models.IPO),
		marketData:  make(map[uuid.UUID]*models.MarketData),
		financials:  make(map[uuid.UUID]*models.FinancialMetrics),
		profiles:    make(map[uuid.UUID]models.CompanyProfileUpdate),
		failSymbols: make(map[string]bool),
	}
}

var errStorage = errors.New("storage unavailable")

func (r *memRepo) GetOrCreateCompany(_ context.Context, company *models.Company) (*models.Company, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if company.Symbol == r.panicSymbol && r.panicSymbol != "" {
		panic("boom")
	}
	if r.failSymbols[company.Symbol] {
		return nil, false, errStorage
	}
	if existing, ok := r.companies[company.Symbol]; ok {
		copied := *existing
		return &copied, false, nil
	}

	stored := *company
	stored.ID = uuid.New()
	r.companies[company.Symbol] = &stored
	r.writes++
	copied := stored
	return &copied, true, nil
}

func (r *memRepo) GetIPOByCompany(_ context.Context, companyID uuid.UUID) (*models.IPO, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ipo, ok := r.ipos[companyID]; ok {
		copied := *ipo
		return &copied, nil
	}
	return nil, nil
}

func (r *memRepo) UpsertIPO(_ context.Context, ipo *models.IPO) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++

	if existing, ok := r.ipos[ipo.CompanyID]; ok {
		existing.Status = ipo.Status
		existing.PriceBandMin = ipo.PriceBandMin
		existing.PriceBandMax = ipo.PriceBandMax
		*ipo = *existing
		return false, nil
	}

	stored := *ipo
	stored.ID = uuid.New()
	r.ipos[ipo.CompanyID] = &stored
	*ipo = stored
	return true, nil
}

func (r *memRepo) InsertIPOIfAbsent(_ context.Context, ipo *models.IPO) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.ipos[ipo.CompanyID]; ok {
		*ipo = *existing
		return false, nil
	}
	stored := *ipo
	stored.ID = uuid.New()
	r.ipos[ipo.CompanyID] = &stored
	r.writes++
	*ipo = stored
	return true, nil
}

func (r *memRepo) UpsertMarketData(_ context.Context, data *models.MarketData) error {
	if err := data.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *data
	r.marketData[data.IPOID] = &copied
	r.writes++
	return nil
}

func (r *memRepo) UpsertFinancialMetrics(_ context.Context, metrics *models.FinancialMetrics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *metrics
	r.financials[metrics.CompanyID] = &copied
	r.writes++
	return nil
}

func (r *memRepo) UpdateCompanyProfile(_ context.Context, companyID uuid.UUID, update models.CompanyProfileUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[companyID] = update
	r.writes++
	return nil
}

func (r *memRepo) ListIPOReferences(_ context.Context) ([]models.IPOReference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var refs []models.IPOReference
	for _, company := range r.companies {
		ipo, ok := r.ipos[company.ID]
		if !ok {
			continue
		}
		refs = append(refs, models.IPOReference{
			IPOID:       ipo.ID,
			CompanyID:   company.ID,
			CompanyName: company.Name,
			Symbol:      company.Symbol,
			Status:      ipo.Status,
		})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Symbol < refs[j].Symbol })
	return refs, nil
}

func (r *memRepo) UpdateMarketSignals(_ context.Context, ipoID uuid.UUID, gmp float64, subscription *float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, ok := r.marketData[ipoID]
	if !ok {
		data = &models.MarketData{IPOID: ipoID}
		r.marketData[ipoID] = data
	}
	data.GreyMarketPremium = &gmp
	for _, ipo := range r.ipos {
		if ipo.ID == ipoID && subscription != nil {
			rate := *subscription
			ipo.SubscriptionRate = &rate
		}
	}
	r.writes++
	return nil
}

func (r *memRepo) InsertNews(_ context.Context, news *models.IPONews) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.news {
		if existing.IPOID == news.IPOID && existing.URL == news.URL {
			return false, nil
		}
	}
	stored := *news
	stored.ID = uuid.New()
	r.news = append(r.news, stored)
	r.writes++
	return true, nil
}

func (r *memRepo) ipoFor(symbol string) *models.IPO {
	r.mu.Lock()
	defer r.mu.Unlock()

	company, ok := r.companies[symbol]
	if !ok {
		return nil
	}
	ipo, ok := r.ipos[company.ID]
	if !ok {
		return nil
	}
	copied := *ipo
	return &copied
}

func (r *memRepo) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

// fakeCalendar is a scripted CalendarSource.
type fakeCalendar struct {
	configured bool
	entries    []models.FinnhubIPO
	profiles   map[string]*models.FinnhubCompanyProfile

	// block, when set, holds GetIPOCalendar until closed
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeCalendar) IsConfigured() bool { return f.configured }

func (f *fakeCalendar) GetIPOCalendar(ctx context.Context, _, _ time.Time) []models.FinnhubIPO {
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
		}
	}
	return f.entries
}

func (f *fakeCalendar) GetCompanyProfile(_ context.Context, symbol string) (*models.FinnhubCompanyProfile, error) {
	if profile, ok := f.profiles[symbol]; ok {
		return profile, nil
	}
	return nil, nil
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) InvalidateAllIPOCache(context.Context) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
