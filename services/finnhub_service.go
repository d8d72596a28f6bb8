package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/sirupsen/logrus"
)

// ErrFinnhubNotConfigured is returned when no usable API key is set.
var ErrFinnhubNotConfigured = errors.New("finnhub API key not configured")

// DefaultCalendarWindow is the look-ahead used when no end date is given.
const DefaultCalendarWindow = 30 * 24 * time.Hour

// FinnhubService reads the IPO calendar and company profiles from Finnhub.
type FinnhubService struct {
	apiKey             string
	baseURL            string
	httpClient         *http.Client
	requestRateLimiter *shared.HTTPRequestRateLimiter
	configuration      shared.ServiceConfig
	serviceMetrics     *shared.ServiceMetrics
	clock              shared.Clock
	location           *time.Location
}

// NewFinnhubService builds a client. An empty key leaves the service
// unconfigured; every call then degrades to an empty result.
func NewFinnhubService(apiKey string, config shared.ServiceConfig, httpClientFactory *shared.HTTPClientFactory, clock shared.Clock, location *time.Location) *FinnhubService {
	if httpClientFactory == nil {
		httpClientFactory = shared.NewHTTPClientFactory(config.HTTPRequestTimeout)
	}
	if clock == nil {
		clock = shared.RealClock{}
	}
	if location == nil {
		location = time.Local
	}

	service := &FinnhubService{
		apiKey:             strings.TrimSpace(apiKey),
		baseURL:            strings.TrimRight(config.BaseURL, "/"),
		httpClient:         httpClientFactory.Client(config.HTTPRequestTimeout),
		requestRateLimiter: shared.NewHTTPRequestRateLimiter(config.RequestRateLimit),
		configuration:      config,
		serviceMetrics:     shared.NewServiceMetrics("Finnhub_Service"),
		clock:              clock,
		location:           location,
	}

	logrus.WithFields(logrus.Fields{
		"component":    "FinnhubService",
		"base_url":     service.baseURL,
		"configured":   service.IsConfigured(),
		"http_timeout": config.HTTPRequestTimeout,
		"rate_limit":   config.RequestRateLimit,
	}).Info("Finnhub service initialized")

	return service
}

// IsConfigured reports whether an API key is available
func (s *FinnhubService) IsConfigured() bool {
	return s.apiKey != ""
}

// CalendarWindow resolves zero dates to today and today plus the default window
func (s *FinnhubService) CalendarWindow(from, to time.Time) (time.Time, time.Time) {
	today := models.CalendarDate(s.clock.Now().In(s.location))
	if from.IsZero() {
		from = today
	}
	if to.IsZero() {
		to = today.Add(DefaultCalendarWindow)
	}
	return models.CalendarDate(from), models.CalendarDate(to)
}

// GetIPOCalendar returns calendar entries for the window. Unconfigured
// clients and any transport or decoding failure yield an empty slice; the
// failure is only logged.
func (s *FinnhubService) GetIPOCalendar(ctx context.Context, from, to time.Time) []models.FinnhubIPO {
	entries, err := s.FetchIPOCalendar(ctx, from, to)
	if err != nil {
		var serviceErr *shared.ServiceError
		if errors.As(err, &serviceErr) {
			serviceErr.LogError()
		} else {
			logrus.WithError(err).WithField("component", "FinnhubService").Error("Failed to fetch IPO calendar")
		}
		return []models.FinnhubIPO{}
	}
	return entries
}

// FetchIPOCalendar is GetIPOCalendar with the error returned to the caller
func (s *FinnhubService) FetchIPOCalendar(ctx context.Context, from, to time.Time) ([]models.FinnhubIPO, error) {
	if !s.IsConfigured() {
		return nil, shared.NewServiceError(shared.ErrorCategoryConfiguration, "FINNHUB_NOT_CONFIGURED",
			"Finnhub API key not configured", "Finnhub_Service", "FetchIPOCalendar", false, ErrFinnhubNotConfigured)
	}

	from, to = s.CalendarWindow(from, to)
	query := url.Values{}
	query.Set("from", from.Format(models.DateLayout))
	query.Set("to", to.Format(models.DateLayout))

	var calendar models.FinnhubIPOCalendar
	if err := s.getJSON(ctx, "/calendar/ipo", query, "FetchIPOCalendar", &calendar); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"component": "FinnhubService",
		"from":      from.Format(models.DateLayout),
		"to":        to.Format(models.DateLayout),
		"entries":   len(calendar.IPOCalendar),
	}).Info("Fetched IPO calendar")

	if calendar.IPOCalendar == nil {
		return []models.FinnhubIPO{}, nil
	}
	return calendar.IPOCalendar, nil
}

// GetCompanyProfile returns the profile for symbol, or nil when Finnhub has
// none. Errors are returned so enrichment can count them.
func (s *FinnhubService) GetCompanyProfile(ctx context.Context, symbol string) (*models.FinnhubCompanyProfile, error) {
	if !s.IsConfigured() {
		return nil, ErrFinnhubNotConfigured
	}

	query := url.Values{}
	query.Set("symbol", symbol)

	var profile models.FinnhubCompanyProfile
	if err := s.getJSON(ctx, "/stock/profile2", query, "GetCompanyProfile", &profile); err != nil {
		return nil, err
	}

	// Unknown symbols come back as an empty object.
	if profile.Name == "" && profile.Ticker == "" {
		return nil, nil
	}
	return &profile, nil
}

// finnhubTokenHeader carries the API key so it never appears in request URLs.
const finnhubTokenHeader = "X-Finnhub-Token"

func (s *FinnhubService) getJSON(ctx context.Context, path string, query url.Values, operation string, target interface{}) error {
	startTime := time.Now()

	if err := s.requestRateLimiter.Wait(ctx); err != nil {
		return shared.NewServiceError(shared.ErrorCategoryTimeout, "RATE_LIMIT_WAIT_ABORTED",
			"request cancelled while rate limited", "Finnhub_Service", operation, false, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return shared.NewServiceError(shared.ErrorCategoryConfiguration, "INVALID_REQUEST",
			"failed to build Finnhub request", "Finnhub_Service", operation, false, err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set(finnhubTokenHeader, s.apiKey)

	response, err := shared.ExecuteHTTPRequestWithRetry(ctx, s.httpClient, request, s.configuration.MaxRetryAttempts)
	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(startTime))
		category := shared.ErrorCategoryNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			category = shared.ErrorCategoryTimeout
		}
		return shared.NewServiceError(category, "FINNHUB_REQUEST_FAILED",
			fmt.Sprintf("Finnhub %s request failed", path), "Finnhub_Service", operation,
			shared.IsRetryableError(err), err)
	}
	defer response.Body.Close()

	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(startTime))
		return shared.NewServiceError(shared.ErrorCategoryProcessing, "FINNHUB_DECODE_FAILED",
			fmt.Sprintf("failed to decode Finnhub %s response", path), "Finnhub_Service", operation, false, err)
	}

	s.serviceMetrics.RecordRequest(true, time.Since(startTime))
	return nil
}

// GetServiceMetrics returns request metrics for the status endpoint
func (s *FinnhubService) GetServiceMetrics() *shared.ServiceMetrics {
	return s.serviceMetrics
}
