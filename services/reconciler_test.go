package services

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

func newTestReconciler(repo IPORepository) *Reconciler {
	return NewReconciler(repo, shared.NewManualClock(testNow), time.UTC)
}

func TestReconcileCreatesCompanyAndIPO(t *testing.T) {
	repo := newMemRepo()
	reconciler := newTestReconciler(repo)

	result, err := reconciler.Reconcile(context.Background(), models.IPORecord{
		Symbol: "ABC", Name: "Alpha Corp", Date: "2099-01-01", Exchange: "NSE",
		PriceMin: 100, PriceMax: 120, Shares: 5_000_000,
	})
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.True(t, result.CompanyCreated)

	company := result.Company
	assert.Equal(t, "Alpha Corp", company.Name)
	assert.Equal(t, "ABC", company.Symbol)
	assert.Equal(t, DefaultCompanyIndustry, company.Industry)
	assert.Equal(t, DefaultCompanyHeadquarters, company.Headquarters)
	assert.Equal(t, "Company going public: Alpha Corp", company.Description)

	ipo := result.IPO
	assert.Equal(t, models.IPOStatusUpcoming, ipo.Status)
	assert.Equal(t, models.ExchangeNSE, ipo.Exchange)
	assert.Equal(t, 100.0, ipo.PriceBandMin)
	assert.Equal(t, 120.0, ipo.PriceBandMax)
	assert.Equal(t, time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC), ipo.OpenDate)
	assert.Equal(t, time.Date(2099, 1, 4, 0, 0, 0, 0, time.UTC), ipo.CloseDate)
	assert.Equal(t, int64(5_000_000), ipo.TotalShares)
	assert.Equal(t, DefaultLotSize, ipo.LotSize)
	assert.Equal(t, MinIssueSize, ipo.IssueSize)
	assert.Equal(t, DefaultLeadManagers, ipo.LeadManagers)
}

func TestReconcileAppliesFloors(t *testing.T) {
	repo := newMemRepo()
	reconciler := newTestReconciler(repo)

	result, err := reconciler.Reconcile(context.Background(), models.IPORecord{
		Symbol: "ZERO", Name: "Zero Co", Date: "2020-01-01", Exchange: "BSE SME",
	})
	require.NoError(t, err)

	ipo := result.IPO
	assert.Equal(t, models.IPOStatusCompleted, ipo.Status)
	assert.Equal(t, models.ExchangeBSE, ipo.Exchange)
	assert.Equal(t, MinPriceBand, ipo.PriceBandMin)
	assert.Equal(t, MinPriceBand, ipo.PriceBandMax)
	assert.Equal(t, int64(MinTotalShares), ipo.TotalShares)
	assert.Equal(t, MinIssueSize, ipo.IssueSize)
}

func TestReconcileMalformedDateFallsBackToToday(t *testing.T) {
	repo := newMemRepo()
	reconciler := newTestReconciler(repo)

	result, err := reconciler.Reconcile(context.Background(), models.IPORecord{
		Symbol: "BAD", Name: "Bad Date Ltd", Date: "next tuesday", PriceMin: 10, PriceMax: 12,
	})
	require.NoError(t, err)

	today := models.CalendarDate(testNow)
	assert.Equal(t, today, result.IPO.OpenDate)
	assert.Equal(t, today.AddDate(0, 0, 3), result.IPO.CloseDate)
	assert.Equal(t, models.IPOStatusOngoing, result.IPO.Status)
}

func TestReconcileUpdateRefreshesOnlyStatusAndPriceBand(t *testing.T) {
	repo := newMemRepo()
	reconciler := newTestReconciler(repo)
	ctx := context.Background()

	first, err := reconciler.Reconcile(ctx, models.IPORecord{
		Symbol: "ABC", Name: "Alpha Corp", Date: "2099-01-01", Exchange: "NSE",
		PriceMin: 100, PriceMax: 120, Shares: 5_000_000,
	})
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := reconciler.Reconcile(ctx, models.IPORecord{
		Symbol: "ABC", Name: "Alpha Corporation", Date: "2099-02-01", Exchange: "BSE",
		PriceMin: 110, PriceMax: 130, Shares: 9_000_000,
	})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.False(t, second.CompanyCreated)
	assert.Equal(t, first.IPO.ID, second.IPO.ID)

	stored := repo.ipoFor("ABC")
	require.NotNil(t, stored)
	assert.Equal(t, 110.0, stored.PriceBandMin)
	assert.Equal(t, 130.0, stored.PriceBandMax)
	assert.Equal(t, models.IPOStatusUpcoming, stored.Status)

	// everything else keeps the values from creation
	assert.Equal(t, models.ExchangeNSE, stored.Exchange)
	assert.Equal(t, time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC), stored.OpenDate)
	assert.Equal(t, int64(5_000_000), stored.TotalShares)
	assert.Equal(t, "Alpha Corp", repo.companies["ABC"].Name)
}

func TestReconcileIsIdempotent(t *testing.T) {
	repo := newMemRepo()
	reconciler := newTestReconciler(repo)
	ctx := context.Background()

	record := models.IPORecord{Symbol: "IDEM", Name: "Idempotent Ltd", Date: "2099-05-05", PriceMin: 50, PriceMax: 55}

	first, err := reconciler.Reconcile(ctx, record)
	require.NoError(t, err)
	second, err := reconciler.Reconcile(ctx, record)
	require.NoError(t, err)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Len(t, repo.ipos, 1)
	assert.Len(t, repo.companies, 1)
	assert.Equal(t, *first.IPO, *second.IPO)
}

func TestReconcileStorageError(t *testing.T) {
	repo := newMemRepo()
	repo.failSymbols["FAIL"] = true
	reconciler := newTestReconciler(repo)

	_, err := reconciler.Reconcile(context.Background(), models.IPORecord{Symbol: "FAIL", Name: "Fail Co", Date: "2099-01-01"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errStorage)
	assert.Empty(t, repo.ipos)
}

func TestReconcilerTodayUsesLocation(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC on May 31 is already June 1 in India.
	clock := shared.NewManualClock(time.Date(2025, 5, 31, 20, 0, 0, 0, time.UTC))
	reconciler := NewReconciler(newMemRepo(), clock, kolkata)

	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), reconciler.Today())
}

func TestReconcileStoresOnlyFiniteAmounts(t *testing.T) {
	repo := newMemRepo()
	reconciler := newTestReconciler(repo)

	var calendar models.FinnhubIPOCalendar
	require.NoError(t, json.Unmarshal([]byte(`{"ipoCalendar":[
		{"symbol":"NAN","name":"Nan Corp","date":"2099-01-01","priceMin":"NaN","priceMax":"NaN","shares":"1e30"}
	]}`), &calendar))
	records := NormalizeIPOCalendar(calendar.IPOCalendar)
	require.Len(t, records, 1)

	result, err := reconciler.Reconcile(context.Background(), records[0])
	require.NoError(t, err)

	ipo := result.IPO
	assert.Equal(t, MinPriceBand, ipo.PriceBandMin)
	assert.Equal(t, MinPriceBand, ipo.PriceBandMax)
	assert.Positive(t, ipo.TotalShares)
	assert.True(t, models.IsFinite(ipo.IssueSize))

	_, err = json.Marshal(ipo)
	assert.NoError(t, err)
}

func TestReconcileRejectsNonFiniteRecord(t *testing.T) {
	repo := newMemRepo()
	reconciler := newTestReconciler(repo)

	for _, value := range []float64{math.NaN(), math.Inf(1)} {
		_, err := reconciler.Reconcile(context.Background(), models.IPORecord{
			Symbol: "BAD", Name: "Bad Corp", Date: "2099-01-01", PriceMin: value, PriceMax: value,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrNonFiniteAmount)

		category, ok := shared.CategoryOf(err)
		assert.True(t, ok)
		assert.Equal(t, shared.ErrorCategoryValidation, category)
	}
	assert.Empty(t, repo.ipos)
}
