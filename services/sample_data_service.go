package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/sirupsen/logrus"
)

// SampleIPO describes one demo offering relative to today.
type SampleIPO struct {
	CompanyName string
	Symbol      string
	Industry    string
	PriceMin    float64
	PriceMax    float64
	OpenOffset  int
	CloseOffset int
	Status      models.IPOStatus
}

// SampleIPOs are created when a forced sync runs without calendar access.
var SampleIPOs = []SampleIPO{
	{"Tech Innovators Ltd", "TECHINNO", "Information Technology", 120, 130, 5, 8, models.IPOStatusUpcoming},
	{"Green Energy Solutions", "GREENSOL", "Renewable Energy", 250, 270, 10, 13, models.IPOStatusUpcoming},
	{"FinTech Payments Pro", "FINPAY", "Financial Services", 500, 520, -2, 1, models.IPOStatusOngoing},
	{"Digital Healthcare Corp", "DIGHEALTH", "Healthcare Technology", 300, 320, 15, 18, models.IPOStatusUpcoming},
}

const (
	sampleTotalShares  = 10_000_000
	sampleLeadManagers = "ICICI Securities, Kotak Mahindra Capital"
	sampleRegistrar    = "Link Intime India Private Limited"
)

// SampleDataService seeds demo companies, IPOs, market data and financials.
type SampleDataService struct {
	repo     SampleDataRepository
	clock    shared.Clock
	location *time.Location

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewSampleDataService uses rng for generated figures; nil seeds from the clock.
func NewSampleDataService(repo SampleDataRepository, clock shared.Clock, location *time.Location, rng *rand.Rand) *SampleDataService {
	if clock == nil {
		clock = shared.RealClock{}
	}
	if location == nil {
		location = time.Local
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(clock.Now().UnixNano()))
	}
	return &SampleDataService{repo: repo, clock: clock, location: location, rand: rng}
}

// Generate creates the sample IPOs that do not exist yet. Existing IPOs are
// left untouched, and market data and financials are only added alongside a
// newly created IPO.
func (s *SampleDataService) Generate(ctx context.Context) (models.SyncStats, error) {
	logger := logrus.WithField("component", "SampleDataService")
	today := models.CalendarDate(s.clock.Now().In(s.location))

	stats := models.SyncStats{Fetched: len(SampleIPOs)}
	for _, sample := range SampleIPOs {
		company, _, err := s.repo.GetOrCreateCompany(ctx, &models.Company{
			Name:         sample.CompanyName,
			Symbol:       sample.Symbol,
			Industry:     sample.Industry,
			Description:  fmt.Sprintf("Sample company in %s sector providing innovative solutions.", sample.Industry),
			Headquarters: "Mumbai, India",
			FoundedYear:  intPtr(2015),
			Employees:    intPtr(1000),
			Website:      fmt.Sprintf("https://%s.com", strings.ToLower(sample.Symbol)),
			CEO:          "Sample CEO Name",
		})
		if err != nil {
			return stats, fmt.Errorf("failed to create sample company %s: %w", sample.Symbol, err)
		}

		ipo := &models.IPO{
			CompanyID:    company.ID,
			Status:       sample.Status,
			Exchange:     models.ExchangeBoth,
			PriceBandMin: sample.PriceMin,
			PriceBandMax: sample.PriceMax,
			OpenDate:     today.AddDate(0, 0, sample.OpenOffset),
			CloseDate:    today.AddDate(0, 0, sample.CloseOffset),
			TotalShares:  sampleTotalShares,
			LotSize:      DefaultLotSize,
			IssueSize:    sample.PriceMax * sampleTotalShares / sharesPerCrore,
			LeadManagers: sampleLeadManagers,
			Registrar:    sampleRegistrar,
		}
		created, err := s.repo.InsertIPOIfAbsent(ctx, ipo)
		if err != nil {
			return stats, fmt.Errorf("failed to create sample IPO %s: %w", sample.Symbol, err)
		}
		stats.Processed++
		if !created {
			continue
		}
		stats.Created++

		if err := s.repo.UpsertMarketData(ctx, s.sampleMarketData(ipo)); err != nil {
			return stats, fmt.Errorf("failed to create sample market data %s: %w", sample.Symbol, err)
		}
		if err := s.repo.UpsertFinancialMetrics(ctx, s.sampleFinancials(company)); err != nil {
			return stats, fmt.Errorf("failed to create sample financials %s: %w", sample.Symbol, err)
		}

		logger.WithField("symbol", sample.Symbol).Info("Created sample IPO")
	}

	logger.WithField("created", stats.Created).Info("Sample IPO data generated")
	return stats, nil
}

func (s *SampleDataService) sampleMarketData(ipo *models.IPO) *models.MarketData {
	s.randMu.Lock()
	defer s.randMu.Unlock()

	ratings := []models.AnalystRating{models.RatingStrongBuy, models.RatingBuy, models.RatingHold}
	riskScore := 3 + s.rand.Intn(6)
	applications := int64(50_000 + s.rand.Intn(450_001))

	return &models.MarketData{
		IPOID:                     ipo.ID,
		RetailSubscription:        floatPtr(s.uniform(1.2, 4.5, 1)),
		HNISubscription:           floatPtr(s.uniform(0.8, 6.2, 1)),
		InstitutionalSubscription: floatPtr(s.uniform(2.1, 8.5, 1)),
		GreyMarketPremium:         floatPtr(s.uniform(-50, 150, 0)),
		AnalystRating:             ratings[s.rand.Intn(len(ratings))],
		RiskScore:                 &riskScore,
		ApplicationCount:          &applications,
		AmountCollected:           floatPtr(s.uniform(100, 2000, 1)),
	}
}

func (s *SampleDataService) sampleFinancials(company *models.Company) *models.FinancialMetrics {
	s.randMu.Lock()
	defer s.randMu.Unlock()

	return &models.FinancialMetrics{
		CompanyID:         company.ID,
		RevenueFY1:        floatPtr(s.uniform(100, 1000, 1)),
		RevenueFY2:        floatPtr(s.uniform(80, 800, 1)),
		RevenueFY3:        floatPtr(s.uniform(60, 600, 1)),
		ProfitFY1:         floatPtr(s.uniform(10, 100, 1)),
		ProfitFY2:         floatPtr(s.uniform(8, 80, 1)),
		ProfitFY3:         floatPtr(s.uniform(5, 60, 1)),
		PERatio:           floatPtr(s.uniform(15, 35, 1)),
		ROE:               floatPtr(s.uniform(8, 25, 1)),
		DebtToEquity:      floatPtr(s.uniform(0.1, 2.5, 2)),
		BookValuePerShare: floatPtr(s.uniform(50, 300, 1)),
	}
}

// uniform draws from [low, high] rounded to the given decimals. Callers hold randMu.
func (s *SampleDataService) uniform(low, high float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	value := low + s.rand.Float64()*(high-low)
	return math.Round(value*scale) / scale
}

func floatPtr(v float64) *float64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}
