package shared

import (
	"time"

	"github.com/sirupsen/logrus"
)

// UnifiedConfiguration collects the tuning knobs shared by services.
type UnifiedConfiguration struct {
	Database  DatabaseConfig  `json:"database"`
	Cache     CacheConfig     `json:"cache"`
	Scheduler SchedulerConfig `json:"scheduler"`
}

// ServiceConfig holds outbound HTTP settings for one remote source
type ServiceConfig struct {
	BaseURL            string        `json:"base_url"`
	HTTPRequestTimeout time.Duration `json:"http_timeout"`
	RequestRateLimit   time.Duration `json:"rate_limit"`
	MaxRetryAttempts   int           `json:"max_retries"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	PingTimeout     time.Duration `json:"ping_timeout"`
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	DefaultTTL time.Duration `json:"default_ttl"`
	MaxSize    int           `json:"max_size"`
}

// SchedulerConfig controls a periodic job.
type SchedulerConfig struct {
	Interval   time.Duration `json:"interval"`
	CheckEvery time.Duration `json:"check_every"`
	RetryAfter time.Duration `json:"retry_after"`
}

// NewDefaultUnifiedConfiguration returns production defaults
func NewDefaultUnifiedConfiguration() *UnifiedConfiguration {
	return &UnifiedConfiguration{
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			PingTimeout:     5 * time.Second,
		},
		Cache: CacheConfig{
			DefaultTTL: 15 * time.Minute,
			MaxSize:    1000,
		},
		Scheduler: NewIPOSyncSchedulerConfig(6 * time.Hour),
	}
}

// NewFinnhubServiceConfig returns settings for the Finnhub REST API. Free
// plans allow 60 calls a minute; calls are one-shot.
func NewFinnhubServiceConfig(baseURL string) ServiceConfig {
	return ServiceConfig{
		BaseURL:            baseURL,
		HTTPRequestTimeout: 15 * time.Second,
		RequestRateLimit:   1 * time.Second,
		MaxRetryAttempts:   0,
	}
}

// NewGMPServiceConfig returns settings for the grey market premium page
func NewGMPServiceConfig(baseURL string) ServiceConfig {
	return ServiceConfig{
		BaseURL:            baseURL,
		HTTPRequestTimeout: 30 * time.Second,
		RequestRateLimit:   2 * time.Second,
		MaxRetryAttempts:   2,
	}
}

// NewNewsServiceConfig returns settings for RSS news feeds
func NewNewsServiceConfig() ServiceConfig {
	return ServiceConfig{
		HTTPRequestTimeout: 20 * time.Second,
		RequestRateLimit:   500 * time.Millisecond,
		MaxRetryAttempts:   1,
	}
}

// NewIPOSyncSchedulerConfig returns the calendar sync cadence: due every
// interval, re-checked hourly, five minutes of backoff after a failure.
func NewIPOSyncSchedulerConfig(interval time.Duration) SchedulerConfig {
	return SchedulerConfig{
		Interval:   interval,
		CheckEvery: time.Hour,
		RetryAfter: 5 * time.Minute,
	}
}

// NewPeriodicJobConfig runs a job every interval with the standard failure backoff
func NewPeriodicJobConfig(every time.Duration) SchedulerConfig {
	return SchedulerConfig{
		Interval:   every,
		CheckEvery: every,
		RetryAfter: 5 * time.Minute,
	}
}

// ValidateAndApplyDefaults replaces unusable values with defaults
func (c *UnifiedConfiguration) ValidateAndApplyDefaults() {
	logger := logrus.WithField("component", "UnifiedConfiguration")
	defaults := NewDefaultUnifiedConfiguration()

	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
		logger.Debug("Applied default Database.MaxOpenConns")
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
		logger.Debug("Applied default Database.MaxIdleConns")
	}
	if c.Database.ConnMaxLifetime <= 0 {
		c.Database.ConnMaxLifetime = defaults.Database.ConnMaxLifetime
		logger.Debug("Applied default Database.ConnMaxLifetime")
	}
	if c.Database.ConnMaxIdleTime <= 0 {
		c.Database.ConnMaxIdleTime = defaults.Database.ConnMaxIdleTime
		logger.Debug("Applied default Database.ConnMaxIdleTime")
	}
	if c.Database.PingTimeout <= 0 {
		c.Database.PingTimeout = defaults.Database.PingTimeout
		logger.Debug("Applied default Database.PingTimeout")
	}

	if c.Cache.DefaultTTL <= 0 {
		c.Cache.DefaultTTL = defaults.Cache.DefaultTTL
		logger.Debug("Applied default Cache.DefaultTTL")
	}
	if c.Cache.MaxSize <= 0 {
		c.Cache.MaxSize = defaults.Cache.MaxSize
		logger.Debug("Applied default Cache.MaxSize")
	}

	c.Scheduler.ApplyDefaults()
}

// ApplyDefaults fills zero or negative durations with the sync defaults.
func (s *SchedulerConfig) ApplyDefaults() {
	if s.Interval <= 0 {
		s.Interval = 6 * time.Hour
	}
	if s.CheckEvery <= 0 {
		s.CheckEvery = time.Hour
	}
	if s.RetryAfter <= 0 {
		s.RetryAfter = 5 * time.Minute
	}
}
