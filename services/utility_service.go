package services

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
)

const (
	// MinPriceBand is the lowest price stored for either end of a band.
	MinPriceBand = 1.0
	// MinTotalShares is the floor applied to share counts of new IPOs.
	MinTotalShares = 1_000_000
	// MinIssueSize is the floor, in crores, of an estimated issue size.
	MinIssueSize = 100.0
	// DefaultLotSize is used until the real lot size is published.
	DefaultLotSize = 100
	// SubscriptionWindow is the assumed length of an IPO subscription.
	SubscriptionWindow = 3 * 24 * time.Hour

	sharesPerCrore = 10_000_000
)

var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRegex      = regexp.MustCompile(`\s+`)
	currencyRegex        = regexp.MustCompile(`[₹$€£¥]`)
	signedNumberRegex    = regexp.MustCompile(`[+-]?\s*\d+(?:\.\d+)?`)
)

// DeriveStatus maps an IPO date onto the lifecycle: future dates are
// upcoming, today is ongoing and past dates are completed. Both arguments
// are compared as calendar dates.
func DeriveStatus(ipoDate, today time.Time) models.IPOStatus {
	day := models.CalendarDate(ipoDate)
	now := models.CalendarDate(today)

	switch {
	case day.After(now):
		return models.IPOStatusUpcoming
	case day.Equal(now):
		return models.IPOStatusOngoing
	default:
		return models.IPOStatusCompleted
	}
}

// ParseCalendarDate parses the YYYY-MM-DD dates the calendar API returns
func ParseCalendarDate(value string) (time.Time, error) {
	parsed, err := time.Parse(models.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid calendar date %q: %w", value, err)
	}
	return parsed, nil
}

// FloorPriceBand keeps both ends of a band at or above MinPriceBand and never
// lets the maximum drop below the minimum.
func FloorPriceBand(priceMin, priceMax float64) (float64, float64) {
	floorMin := math.Max(priceMin, MinPriceBand)
	return floorMin, math.Max(priceMax, floorMin)
}

// EstimateIssueSize approximates the issue size in crores
func EstimateIssueSize(priceMax float64, shares int64) float64 {
	return math.Max(priceMax*float64(shares)/sharesPerCrore, MinIssueSize)
}

// ExchangeFromText maps a free-form exchange label to NSE or BSE
func ExchangeFromText(exchange string) models.Exchange {
	if strings.Contains(exchange, "NSE") {
		return models.ExchangeNSE
	}
	return models.ExchangeBSE
}

// ParsePriceRange reads ranges such as "12.00-14.00", "₹95 to ₹100" or a
// single price. ok is false when no number was found.
func ParsePriceRange(text string) (priceMin, priceMax float64, ok bool) {
	text = strings.ReplaceAll(currencyRegex.ReplaceAllString(text, ""), ",", "")
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, 0, false
	}

	for _, separator := range []string{" - ", " to ", "~", "-"} {
		// A leading minus is a sign, not a separator.
		idx := strings.Index(text[1:], separator)
		if idx < 0 {
			continue
		}
		idx++
		low, lowOK := parseFinite(text[:idx])
		high, highOK := parseFinite(text[idx+len(separator):])
		if lowOK && highOK {
			return low, high, true
		}
	}

	if value, ok := parseFinite(text); ok {
		return value, value, true
	}
	return 0, 0, false
}

func parseFinite(text string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || !models.IsFinite(value) {
		return 0, false
	}
	return value, true
}

// UtilityService provides the text normalization used to match scraped and
// syndicated content against stored companies.
type UtilityService struct {
	serviceMetrics *shared.ServiceMetrics
}

func NewUtilityService() *UtilityService {
	return &UtilityService{
		serviceMetrics: shared.NewServiceMetrics("Utility_Service"),
	}
}

// NormalizeCompanyName lowercases a company name and strips punctuation and
// legal or offering suffixes so "Acme Ltd. IPO" and "ACME Limited" match.
func (s *UtilityService) NormalizeCompanyName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = nonAlphanumericRegex.ReplaceAllString(normalized, " ")
	normalized = whitespaceRegex.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(normalized)

	suffixes := []string{" ipo", " sme", " nse", " bse", " ltd", " limited", " pvt", " private", " inc", " corp"}
	for trimmed := true; trimmed; {
		trimmed = false
		for _, suffix := range suffixes {
			if strings.HasSuffix(normalized, suffix) {
				normalized = strings.TrimSpace(strings.TrimSuffix(normalized, suffix))
				trimmed = true
			}
		}
	}

	return normalized
}

// NormalizeTextContent collapses whitespace and drops currency markers
func (s *UtilityService) NormalizeTextContent(text string) string {
	if text == "" {
		return ""
	}

	text = whitespaceRegex.ReplaceAllString(strings.TrimSpace(text), " ")
	text = strings.ReplaceAll(text, "₹", "")
	text = strings.ReplaceAll(text, "Rs.", "")
	text = strings.ReplaceAll(text, "Rs ", "")

	return strings.TrimSpace(text)
}

// IsNotAvailable detects placeholders like "TBA", "N/A" or "--"
func (s *UtilityService) IsNotAvailable(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "tba", "tbd", "to be announced", "n/a", "na", "not available", "awaited", "pending", "--", "-", "nil", "null":
		return true
	}
	return false
}

// ExtractSignedNumber returns the first signed number in text, ignoring
// currency symbols, thousands separators and a trailing "x" or "%".
func (s *UtilityService) ExtractSignedNumber(text string) *float64 {
	if s.IsNotAvailable(text) {
		return nil
	}

	start := time.Now()
	cleaned := currencyRegex.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	match := signedNumberRegex.FindString(cleaned)
	if match == "" {
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(match, " ", ""), 64)
	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil
	}

	s.serviceMetrics.RecordRequest(true, time.Since(start))
	return &value
}

// GetServiceMetrics returns the current service metrics
func (s *UtilityService) GetServiceMetrics() *shared.ServiceMetrics {
	return s.serviceMetrics
}
