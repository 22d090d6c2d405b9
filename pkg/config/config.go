package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Market data sources
	Kite  KiteConfig
	Yahoo YahooConfig

	// Symbol universe
	Universe UniverseConfig

	// Market calendar / threshold file (YAML). Empty means built-in defaults.
	MarketConfigPath string

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// KiteConfig holds Zerodha Kite Connect API configuration.
// The access token is issued by the daily login flow outside this process;
// this core only consumes it.
type KiteConfig struct {
	APIKey            string
	AccessToken       string
	BaseURL           string
	Exchange          string
	RequestsPerMinute int
	Timeout           time.Duration
}

// YahooConfig holds the public chart API configuration
type YahooConfig struct {
	BaseURL      string
	SymbolSuffix string // appended to NSE symbols, e.g. ".NS"
	Timeout      time.Duration
}

// UniverseConfig holds symbol universe configuration
type UniverseConfig struct {
	ConstituentsURL string // index constituents CSV (NSE archive format)
	Timeout         time.Duration
}

// SchedulerConfig holds the scheduled job configuration
type SchedulerConfig struct {
	Enabled     bool
	RefreshSpec string // pre-market refresh cron spec, seconds field included
	LiveSpec    string // live quote top-up cron spec, seconds field included
	MaxRetries  int
	RetryDelay  time.Duration
}

// Load reads configuration from environment variables
// SSOT: this is the only function that calls os.Getenv()
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8086"),
		Env:  getEnv("ENV", "development"),

		// Market data sources
		Kite: KiteConfig{
			APIKey:            getEnv("KITE_API_KEY", ""),
			AccessToken:       getEnv("KITE_ACCESS_TOKEN", ""),
			BaseURL:           getEnv("KITE_BASE_URL", "https://api.kite.trade"),
			Exchange:          getEnv("KITE_EXCHANGE", "NSE"),
			RequestsPerMinute: getEnvAsInt("KITE_REQUESTS_PER_MINUTE", 100),
			Timeout:           getEnvAsDuration("KITE_TIMEOUT", "10s"),
		},

		Yahoo: YahooConfig{
			BaseURL:      getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			SymbolSuffix: getEnv("YAHOO_SYMBOL_SUFFIX", ".NS"),
			Timeout:      getEnvAsDuration("YAHOO_TIMEOUT", "15s"),
		},

		Universe: UniverseConfig{
			ConstituentsURL: getEnv("UNIVERSE_CONSTITUENTS_URL",
				"https://archives.nseindia.com/content/indices/ind_nifty500list.csv"),
			Timeout: getEnvAsDuration("UNIVERSE_TIMEOUT", "20s"),
		},

		MarketConfigPath: getEnv("MARKET_CONFIG_PATH", ""),

		Scheduler: SchedulerConfig{
			Enabled: getEnvAsBool("SCHEDULER_ENABLED", true),
			// Every 5 minutes inside the 09:00-09:15 IST pre-market window, Mon-Fri
			RefreshSpec: getEnv("SCHEDULER_REFRESH_SPEC", "0 0/5 9 * * MON-FRI"),
			// Every minute across the trading day; the job itself skips
			// everything outside the live session
			LiveSpec:   getEnv("SCHEDULER_LIVE_SPEC", "0 * 9-15 * * MON-FRI"),
			MaxRetries: getEnvAsInt("SCHEDULER_MAX_RETRIES", 3),
			RetryDelay: getEnvAsDuration("SCHEDULER_RETRY_DELAY", "30s"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	// The broker feed is optional (the public feed covers its absence), but a
	// token without a key can never authenticate
	if c.Kite.AccessToken != "" && c.Kite.APIKey == "" {
		return fmt.Errorf("KITE_API_KEY is required when KITE_ACCESS_TOKEN is set")
	}

	if c.Kite.RequestsPerMinute <= 0 {
		return fmt.Errorf("KITE_REQUESTS_PER_MINUTE must be positive")
	}

	return nil
}

// HasKiteSession reports whether an authenticated broker session is configured
func (c *Config) HasKiteSession() bool {
	return c.Kite.APIKey != "" && c.Kite.AccessToken != ""
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
