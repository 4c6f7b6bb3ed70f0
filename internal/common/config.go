package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment" validate:"oneof=development production prod test"`
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
	EODHD       EODHDConfig    `toml:"eodhd"`
	Bulletin    BulletinConfig `toml:"bulletin"`
	HTTP        HTTPConfig     `toml:"http"`
	Pipeline    PipelineConfig `toml:"pipeline"`
	Retry       RetryConfig    `toml:"retry"`
}

type StorageConfig struct {
	Type   string       `toml:"type" validate:"omitempty,oneof=badger"` // only "badger" is supported
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // default: "15:04:05"
}

// EODHDConfig configures the daily price feed
type EODHDConfig struct {
	BaseURL        string `toml:"base_url" validate:"required,url"`
	APIKey         string `toml:"api_key"`
	ExchangeSuffix string `toml:"exchange_suffix" validate:"required,startswith=."` // ".BK" for the Stock Exchange of Thailand
	RateLimit      string `toml:"rate_limit"`                                       // minimum spacing between requests
	Timeout        string `toml:"timeout"`
	Bars           int    `toml:"bars" validate:"gt=0"` // daily bars fetched per symbol
}

// GetRateLimit parses the request spacing. Invalid values disable limiting.
func (c *EODHDConfig) GetRateLimit() time.Duration {
	return parseDuration(c.RateLimit, 0)
}

// GetTimeout parses the per-request timeout.
func (c *EODHDConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// BulletinConfig configures retrieval and parsing of F45 bulletins
type BulletinConfig struct {
	Timeout         string `toml:"timeout"`
	Retries         int    `toml:"retries" validate:"gte=1"` // total attempts per bulletin
	ContentSelector string `toml:"content_selector" validate:"required"`
}

// GetTimeout parses the per-fetch timeout.
func (c *BulletinConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 60*time.Second)
}

// HTTPConfig holds the browser-like headers sent on outbound requests
type HTTPConfig struct {
	UserAgent         string   `toml:"user_agent"`
	UserAgentRotation bool     `toml:"user_agent_rotation"`
	UserAgents        []string `toml:"user_agents"`
	Referer           string   `toml:"referer"`
	AcceptLanguage    string   `toml:"accept_language"`
}

// PipelineConfig controls worker pool widths and scheduling
type PipelineConfig struct {
	BulletinWorkers   int      `toml:"bulletin_workers" validate:"gte=1"`
	PredictionWorkers int      `toml:"prediction_workers" validate:"gte=1"`
	RunTimeout        string   `toml:"run_timeout"` // empty or "0s" disables the whole-run deadline
	Schedule          string   `toml:"schedule"`    // cron expression for `schedule`
	Symbols           []string `toml:"symbols"`     // optional scope; empty means every symbol
}

// GetRunTimeout parses the whole-run deadline.
func (c *PipelineConfig) GetRunTimeout() time.Duration {
	return parseDuration(c.RunTimeout, 0)
}

// RetryConfig is the backoff policy for rate-limited upstream calls
type RetryConfig struct {
	MaxRetries    int `toml:"max_retries" validate:"gte=0"`
	BackoffFactor int `toml:"backoff_factor" validate:"gte=1"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Type: "badger",
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		EODHD: EODHDConfig{
			BaseURL:        "https://eodhd.com/api",
			ExchangeSuffix: ".BK",
			RateLimit:      "100ms",
			Timeout:        "30s",
			Bars:           5000,
		},
		Bulletin: BulletinConfig{
			Timeout:         "60s",
			Retries:         3,
			ContentSelector: "div.raw-html",
		},
		HTTP: HTTPConfig{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			Referer:        "https://www.set.or.th/",
			AcceptLanguage: "en-US,en;q=0.9,th;q=0.8",
		},
		Pipeline: PipelineConfig{
			BulletinWorkers:   20,
			PredictionWorkers: 5,
			Schedule:          "0 18 * * 1-5", // weekdays after market close
		},
		Retry: RetryConfig{
			MaxRetries:    3,
			BackoffFactor: 2,
		},
	}
}

// LoadFromFile loads configuration from a single file
func LoadFromFile(path string) (*Config, error) {
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority: defaults -> file1 -> file2 -> ... -> env
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier files
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

func applyEnvOverrides(config *Config) {
	if env := os.Getenv("INVESTECH_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Storage
	if badgerPath := os.Getenv("INVESTECH_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if reset := os.Getenv("INVESTECH_BADGER_RESET_ON_STARTUP"); reset != "" {
		if b, err := strconv.ParseBool(reset); err == nil {
			config.Storage.Badger.ResetOnStartup = b
		}
	}

	// Logging
	if level := os.Getenv("INVESTECH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("INVESTECH_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Price feed
	if baseURL := os.Getenv("INVESTECH_EODHD_BASE_URL"); baseURL != "" {
		config.EODHD.BaseURL = baseURL
	}
	if apiKey := os.Getenv("INVESTECH_EODHD_API_KEY"); apiKey != "" {
		config.EODHD.APIKey = apiKey
	} else if apiKey := os.Getenv("EODHD_API_KEY"); apiKey != "" {
		config.EODHD.APIKey = apiKey
	}
	if timeout := os.Getenv("INVESTECH_EODHD_TIMEOUT"); timeout != "" {
		config.EODHD.Timeout = timeout
	}

	// Bulletins
	if timeout := os.Getenv("INVESTECH_BULLETIN_TIMEOUT"); timeout != "" {
		config.Bulletin.Timeout = timeout
	}

	// HTTP session
	if ua := os.Getenv("INVESTECH_USER_AGENT"); ua != "" {
		config.HTTP.UserAgent = ua
	}
	if referer := os.Getenv("INVESTECH_REFERER"); referer != "" {
		config.HTTP.Referer = referer
	}

	// Pipeline
	if workers := os.Getenv("INVESTECH_BULLETIN_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Pipeline.BulletinWorkers = w
		}
	}
	if workers := os.Getenv("INVESTECH_PREDICTION_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Pipeline.PredictionWorkers = w
		}
	}
	if timeout := os.Getenv("INVESTECH_RUN_TIMEOUT"); timeout != "" {
		config.Pipeline.RunTimeout = timeout
	}
	if schedule := os.Getenv("INVESTECH_SCHEDULE"); schedule != "" {
		config.Pipeline.Schedule = schedule
	}
	if symbols := os.Getenv("INVESTECH_SYMBOLS"); symbols != "" {
		config.Pipeline.Symbols = NormalizeSymbols(strings.Split(symbols, ","))
	}

	// Retry
	if retries := os.Getenv("INVESTECH_MAX_RETRIES"); retries != "" {
		if r, err := strconv.Atoi(retries); err == nil {
			config.Retry.MaxRetries = r
		}
	}
}

// ApplyFlagOverrides applies command line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, dataPath string, symbols []string) {
	if dataPath != "" {
		config.Storage.Badger.Path = dataPath
	}
	if len(symbols) > 0 {
		config.Pipeline.Symbols = NormalizeSymbols(symbols)
	}
}

// Validate checks struct tags and the cron schedule.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	durations := map[string]string{
		"eodhd.rate_limit":     c.EODHD.RateLimit,
		"eodhd.timeout":        c.EODHD.Timeout,
		"bulletin.timeout":     c.Bulletin.Timeout,
		"pipeline.run_timeout": c.Pipeline.RunTimeout,
	}
	for key, value := range durations {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d < 0 {
			return fmt.Errorf("invalid configuration: %s must be a non-negative duration, got %q", key, value)
		}
	}
	if c.Pipeline.Schedule != "" {
		if err := ValidateSchedule(c.Pipeline.Schedule); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSchedule parses a standard 5-field cron expression.
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}
