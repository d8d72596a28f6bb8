package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Placeholder values shipped in example .env files. They count as unset.
const (
	FinnhubKeyPlaceholder = "your_finnhub_api_key_here"
	GeminiKeyPlaceholder  = "YOUR_GEMINI_API_KEY_HERE"
)

type Config struct {
	ServerPort     string
	DatabaseURL    string
	LogLevel       string
	LogFormat      string
	MarketTimezone string

	FinnhubAPIKey     string
	FinnhubBaseURL    string
	SyncIntervalHours string
	SyncOnStartup     bool

	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string

	CacheTTLMinutes string
	RedisURL        string

	NewsFeedURLs  []string
	GMPSourceURL  string
	GMPRenderMode string
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		MarketTimezone: getEnv("MARKET_TIMEZONE", "Asia/Kolkata"),

		FinnhubAPIKey:     getEnv("FINNHUB_API_KEY", ""),
		FinnhubBaseURL:    getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
		SyncIntervalHours: getEnv("SYNC_INTERVAL_HOURS", "6"),
		SyncOnStartup:     getEnvBool("SYNC_ON_STARTUP", true),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		CacheTTLMinutes: getEnv("CACHE_TTL_MINUTES", "15"),
		RedisURL:        getEnv("REDIS_URL", ""),

		NewsFeedURLs:  splitList(getEnv("NEWS_FEED_URLS", "")),
		GMPSourceURL:  getEnv("GMP_SOURCE_URL", "https://www.investorgain.com/report/live-ipo-gmp/331/"),
		GMPRenderMode: getEnv("GMP_RENDER_MODE", "http"),
	}
}

// FinnhubKey returns the API key, or "" when it is missing or a placeholder.
func (c *Config) FinnhubKey() string {
	key := strings.TrimSpace(c.FinnhubAPIKey)
	if key == FinnhubKeyPlaceholder {
		return ""
	}
	return key
}

// GeminiKey returns the API key, or "" when it is missing or a placeholder.
func (c *Config) GeminiKey() string {
	key := strings.TrimSpace(c.GeminiAPIKey)
	if key == GeminiKeyPlaceholder {
		return ""
	}
	return key
}

// GetSyncInterval returns the scheduler interval, defaulting to 6 hours
func (c *Config) GetSyncInterval() time.Duration {
	hours, err := strconv.ParseFloat(c.SyncIntervalHours, 64)
	if err != nil || hours <= 0 {
		if c.SyncIntervalHours != "" {
			logrus.Warnf("Invalid SYNC_INTERVAL_HOURS value: %s, using default 6 hours", c.SyncIntervalHours)
		}
		return 6 * time.Hour
	}
	return time.Duration(hours * float64(time.Hour))
}

// GetCacheTTL returns the listing cache TTL, defaulting to 15 minutes
func (c *Config) GetCacheTTL() time.Duration {
	minutes, err := strconv.Atoi(c.CacheTTLMinutes)
	if err != nil || minutes <= 0 {
		if c.CacheTTLMinutes != "" {
			logrus.Warnf("Invalid CACHE_TTL_MINUTES value: %s, using default 15 minutes", c.CacheTTLMinutes)
		}
		return 15 * time.Minute
	}
	return time.Duration(minutes) * time.Minute
}

// Location resolves MarketTimezone, falling back to the process location.
func (c *Config) Location() *time.Location {
	if c.MarketTimezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.MarketTimezone)
	if err != nil {
		logrus.Warnf("Unknown MARKET_TIMEZONE %q, using local time", c.MarketTimezone)
		return time.Local
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
