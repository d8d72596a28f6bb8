package services

import (
	"strings"

	"github.com/fenilmodi00/ipo-tracker/models"
)

// NormalizeIPOCalendar keeps the fields reconciliation needs and silently
// drops entries without a symbol or a name. Split price and share fields win
// over Finnhub's combined price string.
func NormalizeIPOCalendar(raw []models.FinnhubIPO) []models.IPORecord {
	records := make([]models.IPORecord, 0, len(raw))

	for _, entry := range raw {
		symbol := strings.TrimSpace(entry.Symbol)
		name := strings.TrimSpace(entry.Name)
		if symbol == "" || name == "" {
			continue
		}

		record := models.IPORecord{
			Symbol:   symbol,
			Name:     name,
			Date:     strings.TrimSpace(entry.Date),
			Exchange: strings.TrimSpace(entry.Exchange),
			Status:   strings.TrimSpace(entry.Status),
		}
		if record.Status == "" {
			record.Status = string(models.IPOStatusUpcoming)
		}

		if low, high, ok := ParsePriceRange(string(entry.Price)); ok {
			record.PriceMin, record.PriceMax = low, high
		}
		if entry.PriceMin.Set {
			record.PriceMin = entry.PriceMin.Value
		}
		if entry.PriceMax.Set {
			record.PriceMax = entry.PriceMax.Value
		}

		switch {
		case entry.Shares.Set:
			record.Shares = shareCount(entry.Shares.Value)
		case entry.NumberOfShares.Set:
			record.Shares = shareCount(entry.NumberOfShares.Value)
		}

		records = append(records, record)
	}

	return records
}

// maxShareCount is the largest count a float64 holds exactly.
const maxShareCount = 1 << 53

// shareCount converts a decoded share figure without int64 overflow.
func shareCount(value float64) int64 {
	switch {
	case value <= 0:
		return 0
	case value >= maxShareCount:
		return maxShareCount
	}
	return int64(value)
}
