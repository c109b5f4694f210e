package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
)

const (
	DefaultGraceWindow      = 24 * time.Hour
	DefaultScraperRPS       = 1.0
	DefaultScraperBurst     = 2
	DefaultScraperTimeout   = 15 * time.Second
	DefaultQueueWorkers     = 4
	DefaultQueueMaxAttempts = 5
	DefaultHTTPAddress      = ":8080"
	DefaultResultsBaseURL   = "https://www.geoguessr.com/results/"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	Season        SeasonConfig        `yaml:"season"`
	Scraper       ScraperConfig       `yaml:"scraper"`
	Queue         QueueConfig         `yaml:"queue"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the ops HTTP server configuration. An empty address
// disables the server.
type HTTPConfig struct {
	Address string `yaml:"address"`
}

// SeasonConfig holds season freeze settings.
type SeasonConfig struct {
	// GraceWindow is how long a closed season still accepts corrections. Zero
	// freezes a season as soon as it closes; leaving it out uses the default.
	GraceWindow time.Duration `yaml:"grace_window"`
	// Timezone is the IANA zone operator rollover times are read in.
	Timezone string `yaml:"timezone"`
}

// ScraperConfig controls results page fetching.
type ScraperConfig struct {
	BaseURL           string        `yaml:"base_url"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	Timeout           time.Duration `yaml:"timeout"`
}

// QueueConfig controls the River refresh queue.
type QueueConfig struct {
	Workers     int `yaml:"workers"`
	MaxAttempts int `yaml:"max_attempts"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// A missing .env is fine; real deployments inject the environment directly.
	_ = godotenv.Load()

	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	cfg := newConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := finalize(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	cfg := newConfig()

	cfg.Postgres.DSN = os.Getenv("DATABASE_URL")
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	cfg.NATS.URL = os.Getenv("NATS_URL")
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS_URL environment variable not set")
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := finalize(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newConfig presets settings where zero is a meaningful value, so only an
// absent key falls back to the default.
func newConfig() *Config {
	return &Config{
		Season: SeasonConfig{GraceWindow: DefaultGraceWindow},
	}
}

func finalize(cfg *Config) error {
	if cfg.Season.GraceWindow < 0 {
		return fmt.Errorf("season grace window must not be negative, got %s", cfg.Season.GraceWindow)
	}
	applyDefaults(cfg)
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("SCRAPER_BASE_URL"); v != "" {
		cfg.Scraper.BaseURL = v
	}
	if v := os.Getenv("SEASON_GRACE_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SEASON_GRACE_WINDOW value: %v", err)
		}
		cfg.Season.GraceWindow = d
	}
	if v := os.Getenv("SEASON_TIMEZONE"); v != "" {
		cfg.Season.Timezone = v
	}
	if v := os.Getenv("SCRAPER_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid SCRAPER_RPS value: %v", err)
		}
		cfg.Scraper.RequestsPerSecond = f
	}
	if v := os.Getenv("SCRAPER_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SCRAPER_BURST value: %v", err)
		}
		cfg.Scraper.Burst = n
	}
	if v := os.Getenv("SCRAPER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SCRAPER_TIMEOUT value: %v", err)
		}
		cfg.Scraper.Timeout = d
	}
	if v := os.Getenv("QUEUE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid QUEUE_WORKERS value: %v", err)
		}
		cfg.Queue.Workers = n
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Season.Timezone == "" {
		cfg.Season.Timezone = "UTC"
	}
	if cfg.Scraper.BaseURL == "" {
		cfg.Scraper.BaseURL = DefaultResultsBaseURL
	}
	if cfg.Scraper.RequestsPerSecond <= 0 {
		cfg.Scraper.RequestsPerSecond = DefaultScraperRPS
	}
	if cfg.Scraper.Burst <= 0 {
		cfg.Scraper.Burst = DefaultScraperBurst
	}
	if cfg.Scraper.Timeout <= 0 {
		cfg.Scraper.Timeout = DefaultScraperTimeout
	}
	if cfg.Queue.Workers <= 0 {
		cfg.Queue.Workers = DefaultQueueWorkers
	}
	if cfg.Queue.MaxAttempts <= 0 {
		cfg.Queue.MaxAttempts = DefaultQueueMaxAttempts
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	if cfg.Observability.Environment == "" {
		cfg.Observability.Environment = "production"
	}
}

// Location resolves the season timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Season.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ToObsConfig maps the application config onto the observability config.
func ToObsConfig(appCfg *Config) observability.Config {
	return observability.Config{
		LogLevel:    appCfg.Observability.LogLevel,
		Environment: appCfg.Observability.Environment,
	}
}
