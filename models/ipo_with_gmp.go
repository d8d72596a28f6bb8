package models

import "github.com/google/uuid"

// IPOListItem is an IPO joined with the company columns and grey market
// premium that listing pages need.
type IPOListItem struct {
	IPO

	CompanyName       string   `json:"company_name"`
	CompanySymbol     string   `json:"company_symbol"`
	Industry          string   `json:"industry"`
	GreyMarketPremium *float64 `json:"grey_market_premium,omitempty"`
	PriceRange        string   `json:"price_range"`
	DaysToClose       *int     `json:"days_to_close,omitempty"`
}

// IPODetail is everything shown for a single IPO.
type IPODetail struct {
	IPO        IPO               `json:"ipo"`
	Company    Company           `json:"company"`
	Financials *FinancialMetrics `json:"financials,omitempty"`
	MarketData *MarketData       `json:"market_data,omitempty"`
	News       []IPONews         `json:"news"`
	PriceRange string            `json:"price_range"`
	IsActive   bool              `json:"is_active"`
}

// Dashboard groups IPOs the way the landing page shows them.
type Dashboard struct {
	Upcoming  []IPOListItem `json:"upcoming"`
	Ongoing   []IPOListItem `json:"ongoing"`
	Completed []IPOListItem `json:"completed"`
	Counts    EntityCounts  `json:"counts"`
}

// IPOReference is the minimum needed to match scraped or syndicated content
// to a stored IPO.
type IPOReference struct {
	IPOID       uuid.UUID `json:"ipo_id"`
	CompanyID   uuid.UUID `json:"company_id"`
	CompanyName string    `json:"company_name"`
	Symbol      string    `json:"symbol"`
	Status      IPOStatus `json:"status"`
}
