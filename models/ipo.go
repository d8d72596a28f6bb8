package models

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// IPOStatus is the lifecycle state of an offering.
type IPOStatus string

const (
	IPOStatusUpcoming  IPOStatus = "upcoming"
	IPOStatusOngoing   IPOStatus = "ongoing"
	IPOStatusCompleted IPOStatus = "completed"
	IPOStatusCancelled IPOStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s IPOStatus) Valid() bool {
	switch s {
	case IPOStatusUpcoming, IPOStatusOngoing, IPOStatusCompleted, IPOStatusCancelled:
		return true
	}
	return false
}

// Exchange identifies where the shares list.
type Exchange string

const (
	ExchangeNSE  Exchange = "NSE"
	ExchangeBSE  Exchange = "BSE"
	ExchangeBoth Exchange = "BOTH"
)

func (e Exchange) Valid() bool {
	return e == ExchangeNSE || e == ExchangeBSE || e == ExchangeBoth
}

var (
	ErrInvalidPriceBand = errors.New("price_band_min must not exceed price_band_max")
	ErrInvalidDateRange = errors.New("open_date must not be after close_date")
	ErrNonFiniteAmount  = errors.New("price band and issue size must be finite numbers")
)

// IPO is a single public offering. Each company has at most one IPO.
type IPO struct {
	// Identity
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`

	Status   IPOStatus `json:"status"`
	Exchange Exchange  `json:"exchange"`

	// Pricing
	PriceBandMin float64  `json:"price_band_min"`
	PriceBandMax float64  `json:"price_band_max"`
	FinalPrice   *float64 `json:"final_price,omitempty"`

	// Dates
	OpenDate    time.Time  `json:"open_date"`
	CloseDate   time.Time  `json:"close_date"`
	ListingDate *time.Time `json:"listing_date,omitempty"`

	// Issue details
	TotalShares      int64    `json:"total_shares"`
	LotSize          int      `json:"lot_size"`
	IssueSize        float64  `json:"issue_size"` // crores
	MarketCap        *float64 `json:"market_cap,omitempty"`
	SubscriptionRate *float64 `json:"subscription_rate,omitempty"`
	ListingGains     *float64 `json:"listing_gains,omitempty"`

	LeadManagers string `json:"lead_managers"`
	Registrar    string `json:"registrar"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the invariants the storage layer also enforces.
func (i *IPO) Validate() error {
	if !i.Status.Valid() {
		return fmt.Errorf("invalid status %q", i.Status)
	}
	if !i.Exchange.Valid() {
		return fmt.Errorf("invalid exchange %q", i.Exchange)
	}
	if !IsFinite(i.PriceBandMin) || !IsFinite(i.PriceBandMax) || !IsFinite(i.IssueSize) {
		return ErrNonFiniteAmount
	}
	if i.PriceBandMin > i.PriceBandMax {
		return ErrInvalidPriceBand
	}
	if i.OpenDate.After(i.CloseDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// PriceRangeDisplay renders the band the way listings show it.
func (i *IPO) PriceRangeDisplay() string {
	return fmt.Sprintf("₹%.2f - ₹%.2f", i.PriceBandMin, i.PriceBandMax)
}

// IsActive reports whether the subscription window is open on the given day.
func (i *IPO) IsActive(today time.Time) bool {
	day := CalendarDate(today)
	return i.Status == IPOStatusOngoing &&
		!day.Before(CalendarDate(i.OpenDate)) &&
		!day.After(CalendarDate(i.CloseDate))
}

// DaysToClose returns the days left in the subscription window, or nil when
// the IPO is not active.
func (i *IPO) DaysToClose(today time.Time) *int {
	if !i.IsActive(today) {
		return nil
	}
	days := int(CalendarDate(i.CloseDate).Sub(CalendarDate(today)).Hours() / 24)
	return &days
}

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// CalendarDate keeps the year, month and day of t as read in t's own location
// and returns them as midnight UTC. All calendar dates in the module use this
// form so dates parsed, scanned and derived from a clock compare equal.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
