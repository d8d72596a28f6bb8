package models

import (
	"time"

	"github.com/google/uuid"
)

// Company is the root record; IPOs and financials hang off it.
type Company struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Symbol       string    `json:"symbol"`
	Description  string    `json:"description"`
	Industry     string    `json:"industry"`
	FoundedYear  *int      `json:"founded_year,omitempty"`
	Headquarters string    `json:"headquarters"`
	Website      string    `json:"website"`
	CEO          string    `json:"ceo"`
	Employees    *int      `json:"employees,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FinancialMetrics holds three fiscal years of results plus ratios.
// FY1 is the most recent year.
type FinancialMetrics struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`

	RevenueFY1 *float64 `json:"revenue_fy1,omitempty"`
	RevenueFY2 *float64 `json:"revenue_fy2,omitempty"`
	RevenueFY3 *float64 `json:"revenue_fy3,omitempty"`
	ProfitFY1  *float64 `json:"profit_fy1,omitempty"`
	ProfitFY2  *float64 `json:"profit_fy2,omitempty"`
	ProfitFY3  *float64 `json:"profit_fy3,omitempty"`

	PERatio           *float64 `json:"pe_ratio,omitempty"`
	ROE               *float64 `json:"roe,omitempty"`
	DebtToEquity      *float64 `json:"debt_to_equity,omitempty"`
	BookValuePerShare *float64 `json:"book_value_per_share,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompanyProfileUpdate carries enrichment values. Empty strings leave the
// stored column unchanged.
type CompanyProfileUpdate struct {
	Industry     string
	Headquarters string
	Website      string
}
