package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fenilmodi00/ipo-tracker/config"
	"github.com/fenilmodi00/ipo-tracker/database"
	"github.com/fenilmodi00/ipo-tracker/handlers"
	"github.com/fenilmodi00/ipo-tracker/jobs"
	"github.com/fenilmodi00/ipo-tracker/services"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// application holds every long-lived component built from the config.
type application struct {
	cfg     *config.Config
	db      *sql.DB
	store   *database.Store
	redis   *redis.Client
	clients *shared.HTTPClientFactory

	memCache *services.CacheService
	ipos     *services.CachedIPOService
	finnhub  *services.FinnhubService
	sync     *services.SyncService
	gmp      *services.GMPService
	news     *services.NewsService
	chat     *services.ChatService
	utility  *services.UtilityService
	status   *services.StatusService
}

func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	unified := shared.NewDefaultUnifiedConfiguration()
	unified.Cache.DefaultTTL = cfg.GetCacheTTL()
	unified.ValidateAndApplyDefaults()

	db, err := database.ConnectWithConfig(cfg.DatabaseURL, &unified.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	factory := shared.NewHTTPClientFactory(30 * time.Second)
	app := &application{cfg: cfg, db: db, store: database.NewStore(db), clients: factory}

	clock := shared.RealClock{}
	location := cfg.Location()

	var cache services.Cache
	if cfg.RedisURL != "" {
		rdb, err := services.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logrus.WithError(err).Warn("Redis unavailable, falling back to in-memory cache")
		} else {
			app.redis = rdb
			cache = services.NewRedisCache(rdb, "ipo-tracker")
		}
	}
	if cache == nil {
		app.memCache = services.NewCacheService(unified.Cache.MaxSize)
		cache = app.memCache
	}

	app.utility = services.NewUtilityService()
	app.ipos = services.NewCachedIPOService(services.NewIPOService(app.store, clock, location), cache, unified.Cache.DefaultTTL)

	app.finnhub = services.NewFinnhubService(cfg.FinnhubKey(), shared.NewFinnhubServiceConfig(cfg.FinnhubBaseURL), factory, clock, location)
	app.sync = services.NewSyncService(
		app.finnhub,
		services.NewReconciler(app.store, clock, location),
		services.NewSampleDataService(app.store, clock, location, nil),
		app.store,
		app.ipos,
		clock,
	)

	gmpConfig := shared.NewGMPServiceConfig(cfg.GMPSourceURL)
	app.gmp = services.NewGMPService(app.store, services.NewPageLoader(cfg.GMPRenderMode, gmpConfig, factory), gmpConfig, app.ipos)
	app.news = services.NewNewsService(app.store, services.NewsSourcesFromURLs(cfg.NewsFeedURLs), shared.NewNewsServiceConfig(), factory, clock)

	// Typed nil pointers must not reach NewChatService.
	var gemini, openai services.ChatBackend
	if key := cfg.GeminiKey(); key != "" {
		backend, err := services.NewGeminiBackend(ctx, key, cfg.GeminiModel)
		if err != nil {
			logrus.WithError(err).Warn("Gemini backend disabled")
		} else {
			gemini = backend
		}
	}
	if cfg.OpenAIAPIKey != "" {
		openai = services.NewOpenAIBackend(cfg.OpenAIAPIKey, "", cfg.OpenAIModel, factory.Client(60*time.Second))
	}
	app.chat = services.NewChatService(gemini, openai)

	app.status = services.NewStatusService(app.store, app.sync, map[string]bool{
		"gemini": gemini != nil,
		"openai": openai != nil,
		"redis":  app.redis != nil,
	}, app.ipos.CacheBackend(), clock)

	return app, nil
}

// metricSources lists every service that records request metrics.
func (a *application) metricSources() []handlers.MetricsSource {
	return []handlers.MetricsSource{a.finnhub, a.gmp, a.news, a.chat, a.utility, a.ipos.IPOService}
}

func (a *application) Close() {
	for _, source := range a.metricSources() {
		source.GetServiceMetrics().LogSummary()
	}
	a.clients.CloseIdleConnections()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close Redis client")
		}
	}
	if err := a.db.Close(); err != nil {
		logrus.WithError(err).Warn("Failed to close database")
	}
}

// schedulers builds the periodic loops. The IPO sync loop is returned first
// and is only included when SYNC_ON_STARTUP is set.
func (a *application) schedulers(gmpJob *jobs.GMPUpdateJob, newsJob *jobs.NewsUpdateJob) []*jobs.Scheduler {
	clock := shared.RealClock{}
	var list []*jobs.Scheduler

	if a.cfg.SyncOnStartup {
		syncScheduler := jobs.NewScheduler(jobs.NewIPOSyncJob(a.sync), shared.NewIPOSyncSchedulerConfig(a.cfg.GetSyncInterval()), clock)
		a.status.SetScheduler(syncScheduler)
		list = append(list, syncScheduler)
	} else {
		logrus.Info("SYNC_ON_STARTUP disabled, periodic IPO sync not started")
	}

	list = append(list,
		jobs.NewScheduler(gmpJob, shared.NewPeriodicJobConfig(time.Hour), clock),
		jobs.NewScheduler(newsJob, shared.NewPeriodicJobConfig(2*time.Hour), clock),
		jobs.NewScheduler(jobs.NewStatusRefreshJob(a.store, a.ipos, clock, a.cfg.Location()), shared.NewPeriodicJobConfig(time.Hour), clock),
	)
	if a.memCache != nil {
		list = append(list, jobs.NewScheduler(jobs.NewCacheCleanupJob(a.memCache), shared.NewPeriodicJobConfig(12*time.Hour), clock))
	}
	return list
}

func (a *application) handlers(gmpJob *jobs.GMPUpdateJob, newsJob *jobs.NewsUpdateJob) handlers.Handlers {
	return handlers.Handlers{
		IPO:         handlers.NewIPOHandler(a.ipos),
		Admin:       handlers.NewAdminHandler(a.sync, a.status, gmpJob, newsJob),
		Chat:        handlers.NewChatHandler(a.chat),
		Performance: handlers.NewPerformanceHandler(a.db, a.ipos, a.metricSources()...),
		Health: handlers.NewHealthHandler(func(ctx context.Context) error {
			return database.HealthCheck(ctx, a.db)
		}),
	}
}
