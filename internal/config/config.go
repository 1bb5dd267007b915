package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every harvest run setting read from the environment.
// CLI flags in cmd/bvharvest override the run-scoped fields.
type Config struct {
	API      APIConfig
	Retry    RetryConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Metrics  MetricsConfig
	Notify   NotifyConfig
}

// APIConfig holds BV-BRC endpoint settings.
type APIConfig struct {
	BaseURL        string
	BatchSize      int
	RequestTimeout time.Duration
}

// RetryConfig holds attempt and backoff limits.
type RetryConfig struct {
	MaxAttempts         int
	MaxRateLimitBackoff time.Duration
	MaxStandardBackoff  time.Duration
}

// CacheConfig holds the optional Redis result cache address.
type CacheConfig struct {
	Addr string
}

// DatabaseConfig holds the optional Postgres sink DSN.
type DatabaseConfig struct {
	DSN string
}

// MetricsConfig holds the optional Prometheus listen port.
type MetricsConfig struct {
	Port string
}

// NotifyConfig holds the optional run-summary email settings.
type NotifyConfig struct {
	APIKey    string
	FromEmail string
	ToEmail   string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		API: APIConfig{
			BaseURL:        getenv("BVHARVEST_BASE_URL", "https://www.bv-brc.org/api"),
			BatchSize:      getenvInt("BVHARVEST_BATCH_SIZE", 25),
			RequestTimeout: getenvSeconds("BVHARVEST_REQUEST_TIMEOUT_SECONDS", 30*time.Second),
		},
		Retry: RetryConfig{
			MaxAttempts:         getenvInt("BVHARVEST_MAX_RETRIES", 8),
			MaxRateLimitBackoff: getenvSeconds("BVHARVEST_MAX_RATE_LIMIT_BACKOFF_SECONDS", 60*time.Second),
			MaxStandardBackoff:  getenvSeconds("BVHARVEST_MAX_STANDARD_BACKOFF_SECONDS", 30*time.Second),
		},
		Cache: CacheConfig{
			Addr: os.Getenv("BVHARVEST_CACHE_ADDR"),
		},
		Database: DatabaseConfig{
			DSN: os.Getenv("POSTGRES_DSN"),
		},
		Metrics: MetricsConfig{
			Port: os.Getenv("METRICS_PORT"),
		},
		Notify: NotifyConfig{
			APIKey:    os.Getenv("EMAIL_API_KEY"),
			FromEmail: getenv("FROM_EMAIL", "bvharvest@localhost"),
			ToEmail:   os.Getenv("NOTIFY_EMAIL"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getenvSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}
