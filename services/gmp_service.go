package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

const (
	GMPRenderModeHTTP    = "http"
	GMPRenderModeBrowser = "browser"

	gmpRowSelector = "table tbody tr"
)

// PageLoader fetches the HTML of a page.
type PageLoader interface {
	Load(ctx context.Context, url string) (string, error)
	Mode() string
}

// NewPageLoader returns a headless Chrome loader for "browser" and a plain
// HTTP loader otherwise.
func NewPageLoader(mode string, config shared.ServiceConfig, httpClientFactory *shared.HTTPClientFactory) PageLoader {
	if strings.EqualFold(strings.TrimSpace(mode), GMPRenderModeBrowser) {
		return &BrowserPageLoader{timeout: config.HTTPRequestTimeout, waitSelector: gmpRowSelector}
	}
	if httpClientFactory == nil {
		httpClientFactory = shared.NewHTTPClientFactory(config.HTTPRequestTimeout)
	}
	return &CollyPageLoader{client: httpClientFactory.Client(config.HTTPRequestTimeout)}
}

// CollyPageLoader loads static pages with a colly collector.
type CollyPageLoader struct {
	client *http.Client
}

func (l *CollyPageLoader) Mode() string { return GMPRenderModeHTTP }

func (l *CollyPageLoader) Load(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := colly.NewCollector(
		colly.UserAgent(shared.BrowserUserAgent),
		colly.AllowURLRevisit(),
	)
	if l.client != nil {
		c.SetClient(l.client)
	}

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		shared.SetBrowserLikeHeaders(*r.Headers, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	})

	var body string
	var loadErr error
	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		loadErr = fmt.Errorf("GET %s returned %d: %w", url, r.StatusCode, err)
	})

	if err := c.Visit(url); err != nil && loadErr == nil {
		loadErr = err
	}
	if loadErr != nil {
		return "", loadErr
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return body, nil
}

// BrowserPageLoader renders pages whose tables are filled in by JavaScript.
type BrowserPageLoader struct {
	timeout      time.Duration
	waitSelector string
}

func (l *BrowserPageLoader) Mode() string { return GMPRenderModeBrowser }

func (l *BrowserPageLoader) Load(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.Flag("mute-audio", true),
		chromedp.UserAgent(shared.BrowserUserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if l.timeout > 0 {
		browserCtx, cancel = context.WithTimeout(browserCtx, l.timeout)
		defer cancel()
	}

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(1920, 1080),
		chromedp.Navigate(url),
		chromedp.WaitVisible(l.waitSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}

// GMPUpdateStats summarizes one grey market premium refresh.
type GMPUpdateStats struct {
	Rows    int `json:"rows"`
	Matched int `json:"matched"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

// GMPService scrapes grey market premiums and stores them on matching IPOs.
type GMPService struct {
	sourceURL          string
	repo               MarketSignalRepository
	loader             PageLoader
	cache              CacheInvalidator
	requestRateLimiter *shared.HTTPRequestRateLimiter
	utilityService     *UtilityService
	serviceMetrics     *shared.ServiceMetrics
}

// NewGMPService reads config.BaseURL with loader. cache may be nil.
func NewGMPService(repo MarketSignalRepository, loader PageLoader, config shared.ServiceConfig, cache CacheInvalidator) *GMPService {
	service := &GMPService{
		sourceURL:          config.BaseURL,
		repo:               repo,
		loader:             loader,
		cache:              cache,
		requestRateLimiter: shared.NewHTTPRequestRateLimiter(config.RequestRateLimit),
		utilityService:     NewUtilityService(),
		serviceMetrics:     shared.NewServiceMetrics("GMP_Service"),
	}

	logrus.WithFields(logrus.Fields{
		"component":  "GMPService",
		"source_url": service.sourceURL,
		"mode":       loader.Mode(),
		"rate_limit": config.RequestRateLimit,
	}).Info("GMP service initialized")

	return service
}

// FetchGMPData loads the source page and parses its premium table
func (s *GMPService) FetchGMPData(ctx context.Context) ([]models.GMPEntry, error) {
	startTime := time.Now()

	if s.sourceURL == "" {
		return nil, shared.NewServiceError(shared.ErrorCategoryConfiguration, "GMP_SOURCE_MISSING",
			"GMP source URL is not configured", "GMP_Service", "FetchGMPData", false, nil)
	}
	if err := s.requestRateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	html, err := s.loader.Load(ctx, s.sourceURL)
	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(startTime))
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, "GMP_FETCH_FAILED",
			"failed to load GMP page", "GMP_Service", "FetchGMPData", true, err)
	}

	entries, err := ParseGMPTable(html, s.sourceURL, s.utilityService)
	s.serviceMetrics.RecordRequest(err == nil, time.Since(startTime))
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryProcessing, "GMP_PARSE_FAILED",
			"failed to parse GMP table", "GMP_Service", "FetchGMPData", false, err)
	}
	return entries, nil
}

// UpdateGMP stores the premium of every scraped row that names a tracked IPO
func (s *GMPService) UpdateGMP(ctx context.Context) (GMPUpdateStats, error) {
	logger := logrus.WithField("component", "GMPService")
	var stats GMPUpdateStats

	entries, err := s.FetchGMPData(ctx)
	if err != nil {
		return stats, err
	}
	stats.Rows = len(entries)

	refs, err := s.repo.ListIPOReferences(ctx)
	if err != nil {
		return stats, shared.WrapError(err, shared.ErrorCategoryDatabase, "IPO_REFERENCES_FAILED", "GMP_Service", "UpdateGMP", true)
	}

	byName := make(map[string]models.IPOReference, len(refs))
	for _, ref := range refs {
		byName[s.utilityService.NormalizeCompanyName(ref.CompanyName)] = ref
	}

	for _, entry := range entries {
		ref, ok := s.matchEntry(entry, byName)
		if !ok {
			continue
		}
		stats.Matched++

		if err := s.repo.UpdateMarketSignals(ctx, ref.IPOID, entry.GMP, entry.Subscription); err != nil {
			stats.Errors++
			logger.WithError(err).WithField("company", entry.CompanyName).Warn("Failed to store GMP")
			continue
		}
		stats.Updated++
	}

	if stats.Updated > 0 && s.cache != nil {
		s.cache.InvalidateAllIPOCache(ctx)
	}

	s.serviceMetrics.AddToCounter("gmp_updated", int64(stats.Updated))
	logger.WithFields(logrus.Fields{
		"rows":    stats.Rows,
		"matched": stats.Matched,
		"updated": stats.Updated,
		"errors":  stats.Errors,
	}).Info("GMP update completed")

	return stats, nil
}

// matchEntry prefers an exact normalized name and falls back to one name
// being a word prefix of the other.
func (s *GMPService) matchEntry(entry models.GMPEntry, byName map[string]models.IPOReference) (models.IPOReference, bool) {
	name := s.utilityService.NormalizeCompanyName(entry.CompanyName)
	if name == "" {
		return models.IPOReference{}, false
	}
	if ref, ok := byName[name]; ok {
		return ref, true
	}
	for stored, ref := range byName {
		if len(stored) < 4 {
			continue
		}
		if strings.HasPrefix(name, stored+" ") || strings.HasPrefix(stored, name+" ") {
			return ref, true
		}
	}
	return models.IPOReference{}, false
}

// ParseGMPTable reads the first table whose header has a GMP column. The
// name column is the one headed "IPO" or "Name", else the first. A
// subscription column is optional.
func ParseGMPTable(html, source string, utility *UtilityService) ([]models.GMPEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var entries []models.GMPEntry
	found := false

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		nameCol, gmpCol, subCol := 0, -1, -1
		table.Find("tr").First().Find("th, td").Each(func(i int, cell *goquery.Selection) {
			header := strings.ToLower(strings.TrimSpace(cell.Text()))
			switch {
			case gmpCol < 0 && strings.Contains(header, "gmp"):
				gmpCol = i
			case subCol < 0 && strings.Contains(header, "sub"):
				subCol = i
			case i > 0 && nameCol == 0 && (strings.Contains(header, "ipo") || strings.Contains(header, "name")):
				nameCol = i
			}
		})
		if gmpCol < 0 {
			return true
		}
		found = true

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() <= gmpCol || cells.Length() <= nameCol {
				return
			}

			name := utility.NormalizeTextContent(cells.Eq(nameCol).Text())
			gmp := utility.ExtractSignedNumber(utility.NormalizeTextContent(cells.Eq(gmpCol).Text()))
			if name == "" || gmp == nil {
				return
			}

			entry := models.GMPEntry{CompanyName: name, GMP: *gmp, Source: source}
			if subCol >= 0 && cells.Length() > subCol {
				entry.Subscription = utility.ExtractSignedNumber(utility.NormalizeTextContent(cells.Eq(subCol).Text()))
			}
			entries = append(entries, entry)
		})
		return false
	})

	if !found {
		return nil, fmt.Errorf("no table with a GMP column")
	}
	return entries, nil
}

// GetServiceMetrics returns scrape metrics
func (s *GMPService) GetServiceMetrics() *shared.ServiceMetrics {
	return s.serviceMetrics
}
