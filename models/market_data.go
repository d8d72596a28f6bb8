package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AnalystRating string

const (
	RatingStrongBuy AnalystRating = "strong_buy"
	RatingBuy       AnalystRating = "buy"
	RatingHold      AnalystRating = "hold"
	RatingAvoid     AnalystRating = "avoid"
)

func (r AnalystRating) Valid() bool {
	switch r {
	case RatingStrongBuy, RatingBuy, RatingHold, RatingAvoid:
		return true
	}
	return false
}

const (
	MinRiskScore = 1
	MaxRiskScore = 10
)

// MarketData carries subscription and grey market figures for one IPO.
type MarketData struct {
	ID    uuid.UUID `json:"id"`
	IPOID uuid.UUID `json:"ipo_id"`

	RetailSubscription        *float64 `json:"retail_subscription,omitempty"`
	HNISubscription           *float64 `json:"hni_subscription,omitempty"`
	InstitutionalSubscription *float64 `json:"institutional_subscription,omitempty"`

	GreyMarketPremium *float64      `json:"grey_market_premium,omitempty"`
	AnalystRating     AnalystRating `json:"analyst_rating,omitempty"`
	RiskScore         *int          `json:"risk_score,omitempty"`
	ApplicationCount  *int64        `json:"application_count,omitempty"`
	AmountCollected   *float64      `json:"amount_collected,omitempty"` // crores

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *MarketData) Validate() error {
	if m.AnalystRating != "" && !m.AnalystRating.Valid() {
		return fmt.Errorf("invalid analyst rating %q", m.AnalystRating)
	}
	if m.RiskScore != nil && (*m.RiskScore < MinRiskScore || *m.RiskScore > MaxRiskScore) {
		return fmt.Errorf("risk score %d outside %d-%d", *m.RiskScore, MinRiskScore, MaxRiskScore)
	}
	return nil
}

// GMPEntry is one row scraped from a grey market premium table.
type GMPEntry struct {
	CompanyName  string   `json:"company_name"`
	GMP          float64  `json:"gmp"`
	Subscription *float64 `json:"subscription,omitempty"`
	Source       string   `json:"source"`
}
