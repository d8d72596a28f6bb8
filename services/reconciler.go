package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/sirupsen/logrus"
)

// Placeholder company attributes used until a profile is fetched.
const (
	DefaultCompanyIndustry     = "Technology"
	DefaultCompanyHeadquarters = "India"
	DefaultLeadManagers        = "TBD"
)

// ReconcileResult describes what a single record did to storage.
type ReconcileResult struct {
	IPO            *models.IPO
	Company        *models.Company
	Created        bool
	CompanyCreated bool
}

// Reconciler merges cleaned calendar records into stored companies and IPOs.
type Reconciler struct {
	repo        IPORepository
	clock       shared.Clock
	location    *time.Location
	auditLogger *IPOAuditLogger
}

func NewReconciler(repo IPORepository, clock shared.Clock, location *time.Location) *Reconciler {
	if clock == nil {
		clock = shared.RealClock{}
	}
	if location == nil {
		location = time.Local
	}
	return &Reconciler{
		repo:        repo,
		clock:       clock,
		location:    location,
		auditLogger: NewIPOAuditLogger("reconciler"),
	}
}

// Today returns the current calendar date in the market's time zone
func (r *Reconciler) Today() time.Time {
	return models.CalendarDate(r.clock.Now().In(r.location))
}

// Reconcile creates or updates the company and IPO for one record. An
// existing IPO only has its status and price band refreshed.
func (r *Reconciler) Reconcile(ctx context.Context, record models.IPORecord) (*ReconcileResult, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "Reconciler",
		"symbol":    record.Symbol,
	})

	company, companyCreated, err := r.repo.GetOrCreateCompany(ctx, &models.Company{
		Name:         record.Name,
		Symbol:       record.Symbol,
		Industry:     DefaultCompanyIndustry,
		Description:  fmt.Sprintf("Company going public: %s", record.Name),
		Headquarters: DefaultCompanyHeadquarters,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get or create company %s: %w", record.Symbol, err)
	}
	if companyCreated {
		logger.WithField("name", company.Name).Info("Created new company")
	}

	today := r.Today()
	openDate, err := ParseCalendarDate(record.Date)
	if err != nil {
		logger.WithField("raw_date", record.Date).Warn("Unparseable IPO date, using today")
		openDate = today
	}

	ipo := r.buildIPO(company, record, openDate, today)
	if err := ipo.Validate(); err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryValidation, "INVALID_IPO",
			err.Error(), "reconciler", "Reconcile", false, err).WithDetails(record)
	}

	var before *models.IPO
	if !companyCreated {
		if before, err = r.repo.GetIPOByCompany(ctx, company.ID); err != nil {
			return nil, fmt.Errorf("failed to load IPO for %s: %w", record.Symbol, err)
		}
	}

	created, err := r.repo.UpsertIPO(ctx, ipo)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert IPO for %s: %w", record.Symbol, err)
	}

	if created {
		r.auditLogger.LogIPOCreation(ipo, record.Symbol)
	} else {
		r.auditLogger.LogIPOUpdate(before, ipo, record.Symbol)
	}

	return &ReconcileResult{
		IPO:            ipo,
		Company:        company,
		Created:        created,
		CompanyCreated: companyCreated,
	}, nil
}

func (r *Reconciler) buildIPO(company *models.Company, record models.IPORecord, openDate, today time.Time) *models.IPO {
	priceMin, priceMax := FloorPriceBand(record.PriceMin, record.PriceMax)

	totalShares := record.Shares
	if totalShares < MinTotalShares {
		totalShares = MinTotalShares
	}

	return &models.IPO{
		CompanyID:    company.ID,
		Status:       DeriveStatus(openDate, today),
		Exchange:     ExchangeFromText(record.Exchange),
		PriceBandMin: priceMin,
		PriceBandMax: priceMax,
		OpenDate:     openDate,
		CloseDate:    openDate.Add(SubscriptionWindow),
		TotalShares:  totalShares,
		LotSize:      DefaultLotSize,
		IssueSize:    EstimateIssueSize(record.PriceMax, record.Shares),
		LeadManagers: DefaultLeadManagers,
	}
}
