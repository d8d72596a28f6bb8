package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"
)

// DefaultNewsSources are Indian market feeds that carry IPO coverage.
var DefaultNewsSources = []models.NewsSource{
	{Name: "Moneycontrol IPO", RSSURL: "https://www.moneycontrol.com/rss/iponews.xml"},
	{Name: "Economic Times IPOs", RSSURL: "https://economictimes.indiatimes.com/markets/ipos/fpos/rssfeeds/14655708.cms"},
	{Name: "LiveMint Markets", RSSURL: "https://www.livemint.com/rss/markets"},
	{Name: "Business Standard Markets", RSSURL: "https://www.business-standard.com/rss/markets-106.rss"},
}

const maxNewsContentLength = 2000

// NewsSourcesFromURLs names each feed after its host
func NewsSourcesFromURLs(feedURLs []string) []models.NewsSource {
	sources := make([]models.NewsSource, 0, len(feedURLs))
	for _, raw := range feedURLs {
		name := raw
		if parsed, err := url.Parse(raw); err == nil && parsed.Host != "" {
			name = strings.TrimPrefix(parsed.Host, "www.")
		}
		sources = append(sources, models.NewsSource{Name: name, RSSURL: raw})
	}
	return sources
}

// NewsUpdateStats summarizes one pass over all feeds.
type NewsUpdateStats struct {
	Feeds      int `json:"feeds"`
	FeedErrors int `json:"feed_errors"`
	Items      int `json:"items"`
	Matched    int `json:"matched"`
	Inserted   int `json:"inserted"`
}

// NewsService attaches RSS articles to the IPOs they mention.
type NewsService struct {
	repo               NewsRepository
	sources            []models.NewsSource
	parser             *gofeed.Parser
	requestRateLimiter *shared.HTTPRequestRateLimiter
	utilityService     *UtilityService
	clock              shared.Clock
	serviceMetrics     *shared.ServiceMetrics
}

func NewNewsService(repo NewsRepository, sources []models.NewsSource, config shared.ServiceConfig, httpClientFactory *shared.HTTPClientFactory, clock shared.Clock) *NewsService {
	if len(sources) == 0 {
		sources = DefaultNewsSources
	}
	if httpClientFactory == nil {
		httpClientFactory = shared.NewHTTPClientFactory(config.HTTPRequestTimeout)
	}
	if clock == nil {
		clock = shared.RealClock{}
	}

	parser := gofeed.NewParser()
	parser.Client = httpClientFactory.Client(config.HTTPRequestTimeout)
	parser.UserAgent = "Mozilla/5.0 (compatible; ipo-tracker/1.0)"

	return &NewsService{
		repo:               repo,
		sources:            sources,
		parser:             parser,
		requestRateLimiter: shared.NewHTTPRequestRateLimiter(config.RequestRateLimit),
		utilityService:     NewUtilityService(),
		clock:              clock,
		serviceMetrics:     shared.NewServiceMetrics("News_Service"),
	}
}

// UpdateNews reads every feed and stores items that mention a tracked IPO.
// A failing feed is skipped; an error is returned only when every feed fails
// or the IPO list cannot be loaded.
func (s *NewsService) UpdateNews(ctx context.Context) (NewsUpdateStats, error) {
	logger := logrus.WithField("component", "NewsService")
	stats := NewsUpdateStats{Feeds: len(s.sources)}

	refs, err := s.repo.ListIPOReferences(ctx)
	if err != nil {
		return stats, shared.WrapError(err, shared.ErrorCategoryDatabase, "IPO_REFERENCES_FAILED", "News_Service", "UpdateNews", true)
	}
	if len(refs) == 0 {
		logger.Info("No IPOs tracked, skipping news update")
		return stats, nil
	}
	matchers := s.buildMatchers(refs)

	for _, source := range s.sources {
		items, err := s.fetchFeed(ctx, source)
		if err != nil {
			stats.FeedErrors++
			logger.WithError(err).WithField("source", source.Name).Warn("Failed to read news feed")
			continue
		}
		stats.Items += len(items)

		for _, item := range items {
			ref, ok := matchIPO(matchers, item.Title+" "+item.Content, s.utilityService)
			if !ok {
				continue
			}
			stats.Matched++

			item.IPOID = ref.IPOID
			inserted, err := s.repo.InsertNews(ctx, &item)
			if err != nil {
				logger.WithError(err).WithField("url", item.URL).Warn("Failed to store news item")
				continue
			}
			if inserted {
				stats.Inserted++
			}
		}
	}

	logger.WithFields(logrus.Fields{
		"feeds":       stats.Feeds,
		"feed_errors": stats.FeedErrors,
		"items":       stats.Items,
		"matched":     stats.Matched,
		"inserted":    stats.Inserted,
	}).Info("News update completed")

	if stats.Feeds > 0 && stats.FeedErrors == stats.Feeds {
		return stats, shared.NewServiceError(shared.ErrorCategoryNetwork, "ALL_FEEDS_FAILED",
			"every news feed failed", "News_Service", "UpdateNews", true, nil)
	}
	return stats, nil
}

func (s *NewsService) fetchFeed(ctx context.Context, source models.NewsSource) ([]models.IPONews, error) {
	startTime := time.Now()

	if err := s.requestRateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := s.parser.ParseURLWithContext(source.RSSURL, ctx)
	s.serviceMetrics.RecordRequest(err == nil, time.Since(startTime))
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", source.Name, err)
	}

	items := make([]models.IPONews, 0, len(feed.Items))
	for _, item := range feed.Items {
		if strings.TrimSpace(item.Title) == "" || item.Link == "" {
			continue
		}

		body := item.Description
		if body == "" {
			body = item.Content
		}

		published := s.clock.Now()
		switch {
		case item.PublishedParsed != nil:
			published = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			published = *item.UpdatedParsed
		}

		items = append(items, models.IPONews{
			Title:         strings.TrimSpace(item.Title),
			Content:       truncateRunes(cleanHTML(body), maxNewsContentLength),
			Source:        source.Name,
			PublishedDate: published,
			URL:           item.Link,
		})
	}
	return items, nil
}

type ipoMatcher struct {
	ref    models.IPOReference
	name   string
	symbol string
}

func (s *NewsService) buildMatchers(refs []models.IPOReference) []ipoMatcher {
	matchers := make([]ipoMatcher, 0, len(refs))
	for _, ref := range refs {
		matchers = append(matchers, ipoMatcher{
			ref:    ref,
			name:   s.utilityService.NormalizeCompanyName(ref.CompanyName),
			symbol: strings.ToLower(ref.Symbol),
		})
	}
	return matchers
}

// matchIPO finds the first IPO whose normalized name, or symbol of three or
// more characters, appears as whole words in text.
func matchIPO(matchers []ipoMatcher, text string, utility *UtilityService) (models.IPOReference, bool) {
	normalized := " " + utility.NormalizeCompanyName(text) + " "
	for _, m := range matchers {
		if len(m.name) >= 4 && strings.Contains(normalized, " "+m.name+" ") {
			return m.ref, true
		}
	}
	for _, m := range matchers {
		if len(m.symbol) >= 3 && strings.Contains(normalized, " "+m.symbol+" ") {
			return m.ref, true
		}
	}
	return models.IPOReference{}, false
}

// cleanHTML strips HTML tags from a string using goquery
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// GetServiceMetrics returns feed fetch metrics
func (s *NewsService) GetServiceMetrics() *shared.ServiceMetrics {
	return s.serviceMetrics
}
