package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dealmungchi/xidmetlercrawler/pkg/errors"
)

const (
	// DefaultBaseURL is the site root every relative link resolves against
	DefaultBaseURL = "https://xidmetler.az"
	// DefaultUserAgent is the static browser-identifying header
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/141.0.0.0 Safari/537.36"
	// MinDelay is the smallest accepted inter-request delay
	MinDelay = 500 * time.Millisecond
)

// Config represents the application configuration
type Config struct {
	// Site configuration
	BaseURL        string
	UserAgent      string
	RequestTimeout time.Duration

	// Crawl range and pacing
	StartPage int
	EndPage   int
	Delay     time.Duration

	// Output files
	JSONPath   string
	CSVPath    string
	SQLitePath string

	// Memcache configuration
	MemcacheAddr string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		BaseURL:              strings.TrimRight(getEnv("XIDMETLER_BASE_URL", DefaultBaseURL), "/"),
		UserAgent:            getEnv("USER_AGENT", DefaultUserAgent),
		RequestTimeout:       getEnvSeconds("REQUEST_TIMEOUT_SECONDS", 30),
		StartPage:            getEnvInt("CRAWL_START", 0),
		EndPage:              getEnvInt("CRAWL_END", 50),
		Delay:                getEnvSeconds("CRAWL_DELAY_SECONDS", 1.5),
		JSONPath:             getEnv("JSON_OUTPUT", "xidmetler_listings.json"),
		CSVPath:              getEnv("CSV_OUTPUT", "xidmetler_listings.csv"),
		SQLitePath:           getEnv("SQLITE_OUTPUT", ""),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "xidmetler:records"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 10000),
		Environment:          getEnv("XIDMETLER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration before any network activity happens
func (c *Config) Validate() error {
	if c.StartPage < 0 {
		return errors.NewValidation("start", "start page must be >= 0")
	}
	if c.EndPage <= c.StartPage {
		return errors.NewValidation("end", "end page must be > start page")
	}
	if c.Delay < MinDelay {
		return errors.NewValidation("delay", "delay must be >= 0.5 seconds")
	}
	if c.RequestTimeout <= 0 {
		return errors.NewValidation("timeout", "request timeout must be positive")
	}
	if c.JSONPath == "" || c.CSVPath == "" {
		return errors.NewValidation("output", "json and csv output paths are required")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.NewConfiguration("invalid base URL "+strconv.Quote(c.BaseURL), err)
	}

	if c.RedisAddr != "" && c.RedisStreamCount < 1 {
		return errors.NewConfiguration("redis stream count must be >= 1", nil)
	}
	return nil
}

// IsProduction reports whether the crawler runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvSeconds parses a fractional number of seconds ("1.5") into a duration
func getEnvSeconds(key string, defaultValue float64) time.Duration {
	seconds, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		seconds = defaultValue
	}
	return SecondsToDuration(seconds)
}

// SecondsToDuration converts fractional seconds into a time.Duration
func SecondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
