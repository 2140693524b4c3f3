package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Catalog  CatalogConfig
	Scraper  ScraperConfig
	Browser  BrowserConfig
	Output   OutputConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Relay    RelayConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

type CatalogConfig struct {
	BaseURL  string
	Username string
	Password string
}

type ScraperConfig struct {
	LandingSettle  time.Duration
	CategorySettle time.Duration
	PageSettle     time.Duration
	ProductSettle  time.Duration
	WaitTimeout    time.Duration
	LoginTimeout   time.Duration
	LoginAttempts  int
	StrictPageURLs bool
	UserAgents     []string
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ProxyServer    string
}

type OutputConfig struct {
	File string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns a libpq style connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Stream   string
}

type RelayConfig struct {
	Enabled      bool
	PollInterval time.Duration
	BatchSize    int
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads the configuration from the environment. Values in a .env file
// in the working directory are applied first without overriding variables
// that are already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Catalog: CatalogConfig{
			BaseURL:  strings.TrimRight(getEnvOrDefault("CATALOG_BASE_URL", "https://www.nywd.com"), "/"),
			Username: os.Getenv("CATALOG_USERNAME"),
			Password: os.Getenv("CATALOG_PASSWORD"),
		},
		Scraper: ScraperConfig{
			LandingSettle:  getDurationOrDefault("SCRAPER_LANDING_SETTLE", 1*time.Second),
			CategorySettle: getDurationOrDefault("SCRAPER_CATEGORY_SETTLE", 1500*time.Millisecond),
			PageSettle:     getDurationOrDefault("SCRAPER_PAGE_SETTLE", 1*time.Second),
			ProductSettle:  getDurationOrDefault("SCRAPER_PRODUCT_SETTLE", 1500*time.Millisecond),
			WaitTimeout:    getDurationOrDefault("SCRAPER_WAIT_TIMEOUT", 10*time.Second),
			LoginTimeout:   getDurationOrDefault("SCRAPER_LOGIN_TIMEOUT", 10*time.Second),
			LoginAttempts:  getIntOrDefault("SCRAPER_LOGIN_ATTEMPTS", 3),
			StrictPageURLs: getBoolOrDefault("SCRAPER_STRICT_PAGE_URLS", false),
			UserAgents:     getStringSliceOrDefault("SCRAPER_USER_AGENTS", defaultUserAgents()),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "America/New_York"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "en-US"),
			ProxyServer:    os.Getenv("BROWSER_PROXY"),
		},
		Output: OutputConfig{
			File: getEnvOrDefault("OUTPUT_FILE", "storage/app/frames_data.json"),
		},
		Database: DatabaseConfig{
			Enabled:  getBoolOrDefault("DB_ENABLED", false),
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "frame_scraper"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getBoolOrDefault("REDIS_ENABLED", false),
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:frames"),
		},
		Relay: RelayConfig{
			Enabled:      getBoolOrDefault("RELAY_ENABLED", true),
			PollInterval: getDurationOrDefault("RELAY_POLL_INTERVAL", 1*time.Second),
			BatchSize:    getIntOrDefault("RELAY_BATCH_SIZE", 100),
		},
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Catalog.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("CATALOG_BASE_URL must be an absolute URL, got %q", c.Catalog.BaseURL)
	}

	if c.Scraper.WaitTimeout <= 0 {
		return fmt.Errorf("SCRAPER_WAIT_TIMEOUT must be positive")
	}

	if c.Scraper.LoginTimeout <= 0 {
		return fmt.Errorf("SCRAPER_LOGIN_TIMEOUT must be positive")
	}

	for key, d := range map[string]time.Duration{
		"SCRAPER_LANDING_SETTLE":  c.Scraper.LandingSettle,
		"SCRAPER_CATEGORY_SETTLE": c.Scraper.CategorySettle,
		"SCRAPER_PAGE_SETTLE":     c.Scraper.PageSettle,
		"SCRAPER_PRODUCT_SETTLE":  c.Scraper.ProductSettle,
	} {
		if d < 0 {
			return fmt.Errorf("%s cannot be negative", key)
		}
	}

	if c.Output.File == "" {
		return fmt.Errorf("OUTPUT_FILE must not be empty")
	}

	if c.Redis.Enabled && !c.Database.Enabled {
		return fmt.Errorf("REDIS_ENABLED requires DB_ENABLED: the relay reads the database outbox")
	}

	if c.Relay.BatchSize < 1 {
		return fmt.Errorf("RELAY_BATCH_SIZE must be at least 1")
	}

	return nil
}

// ValidateCredentials is checked only by commands that log in.
func (c *Config) ValidateCredentials() error {
	if c.Catalog.Username == "" || c.Catalog.Password == "" {
		return fmt.Errorf("CATALOG_USERNAME and CATALOG_PASSWORD are required")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}

func defaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.0.0 Safari/537.36",
	}
}
