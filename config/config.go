package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables.
//
//   - CHATBRIDGE_URL: platform root URL, e.g. https://chat.example.com (required)
//   - CHATBRIDGE_TOKEN: personal access token
//   - CHATBRIDGE_LOGIN: login email for password authentication
//   - CHATBRIDGE_PASSWORD: password for password authentication
//   - CHATBRIDGE_CACHE_TTL: entity cache TTL (default: 5m)
//   - CHATBRIDGE_HTTP_TIMEOUT: remote call timeout (default: 10s)
//   - CHATBRIDGE_INSECURE_SKIP_VERIFY: disable TLS verification (default: false)
//   - CHATBRIDGE_LOG_LEVEL: debug|info|warn|error (default: info)
//   - CHATBRIDGE_METRICS_EXPORTER: stdout|otlp|prometheus|none (default: none)

// Config holds the full chatbridge configuration.
type Config struct {
	URL      string
	Token    string
	Login    string
	Password string

	CacheTTL           time.Duration
	HTTPTimeout        time.Duration
	InsecureSkipVerify bool

	LogLevel        string
	MetricsExporter string
}

// Load reads configuration from the environment, honoring a .env file when
// one exists. Defaults are applied; call Validate before use.
func Load() Config {
	// Missing .env is the common case, not an error.
	_ = godotenv.Load()

	return Config{
		URL:                os.Getenv("CHATBRIDGE_URL"),
		Token:              os.Getenv("CHATBRIDGE_TOKEN"),
		Login:              os.Getenv("CHATBRIDGE_LOGIN"),
		Password:           os.Getenv("CHATBRIDGE_PASSWORD"),
		CacheTTL:           envDuration("CHATBRIDGE_CACHE_TTL", 5*time.Minute),
		HTTPTimeout:        envDuration("CHATBRIDGE_HTTP_TIMEOUT", 10*time.Second),
		InsecureSkipVerify: envBool("CHATBRIDGE_INSECURE_SKIP_VERIFY", false),
		LogLevel:           envString("CHATBRIDGE_LOG_LEVEL", "info"),
		MetricsExporter:    envString("CHATBRIDGE_METRICS_EXPORTER", "none"),
	}
}

// Validate checks that the configuration can produce a working client.
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("config: CHATBRIDGE_URL is required")
	}
	if !c.HasTokenAuth() && !c.HasPasswordAuth() {
		return errors.New("config: either CHATBRIDGE_TOKEN or both CHATBRIDGE_LOGIN and CHATBRIDGE_PASSWORD must be set")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("config: cache TTL must be positive, got %v", c.CacheTTL)
	}
	return nil
}

// HasTokenAuth reports whether token authentication is configured.
func (c Config) HasTokenAuth() bool {
	return c.Token != ""
}

// HasPasswordAuth reports whether password authentication is configured.
func (c Config) HasPasswordAuth() bool {
	return c.Login != "" && c.Password != ""
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
