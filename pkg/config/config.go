package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application. Every environment
// variable the process reads is declared here.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Upstream sources
	EDGAR     EDGARConfig
	FDA       FDAConfig
	Presswire PresswireConfig
	Earnings  EarningsConfig
	Quotes    QuotesConfig

	// Scan pipeline
	Scan ScanConfig

	// Scoring
	Scoring ScoringConfig

	// Scheduler cron specs (with seconds field)
	Schedule ScheduleConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// EDGARConfig holds SEC EDGAR API configuration. The SEC requires a
// descriptive User-Agent with a contact address on every request.
type EDGARConfig struct {
	BaseURL   string
	UserAgent string
}

// FDAConfig holds the FDA announcements API configuration.
type FDAConfig struct {
	BaseURL string
	APIKey  string
}

// PresswireConfig holds the press-release crawler configuration.
type PresswireConfig struct {
	BaseURL string
}

// EarningsConfig holds the earnings calendar API configuration.
type EarningsConfig struct {
	BaseURL string
	APIKey  string
}

// QuotesConfig holds the daily price quotes API configuration.
type QuotesConfig struct {
	BaseURL string
	APIKey  string
}

// ScanConfig holds job queue and worker settings.
type ScanConfig struct {
	Workers         int
	PollInterval    time.Duration
	FetchTimeout    time.Duration
	CompanyCooldown time.Duration
	ScannerCooldown time.Duration
	StaleJobAge     time.Duration
}

// ScoringConfig holds scoring engine settings.
type ScoringConfig struct {
	// FactorFile optionally overrides the built-in factor tables (YAML).
	FactorFile string
	// BenchmarkTicker is the index proxy for beta and abnormal returns.
	BenchmarkTicker string
	// DuplicateWindow is the trailing window for the duplicate penalty.
	DuplicateWindow time.Duration
}

// ScheduleConfig holds cron specs for the background jobs.
type ScheduleConfig struct {
	ScannerSweep string
	PriceSync    string
	Outcomes     string
	JobJanitor   string
}

// Load reads configuration from environment variables. Only this package
// calls os.Getenv.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "impactradar"),
			User:            getEnv("DB_USER", "impactradar"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// Upstream sources
		EDGAR: EDGARConfig{
			BaseURL:   getEnv("EDGAR_BASE_URL", "https://data.sec.gov"),
			UserAgent: getEnv("EDGAR_USER_AGENT", "ImpactRadar/1.0 ops@impactradar.dev"),
		},
		FDA: FDAConfig{
			BaseURL: getEnv("FDA_BASE_URL", "https://api.fda.gov"),
			APIKey:  getEnv("FDA_API_KEY", ""),
		},
		Presswire: PresswireConfig{
			BaseURL: getEnv("PRESSWIRE_BASE_URL", "https://www.prnewswire.com"),
		},
		Earnings: EarningsConfig{
			BaseURL: getEnv("EARNINGS_BASE_URL", "https://api.earningscalendar.net"),
			APIKey:  getEnv("EARNINGS_API_KEY", ""),
		},
		Quotes: QuotesConfig{
			BaseURL: getEnv("QUOTES_BASE_URL", "https://api.marketdata.app"),
			APIKey:  getEnv("QUOTES_API_KEY", ""),
		},

		// Scan pipeline
		Scan: ScanConfig{
			Workers:         getEnvAsInt("SCAN_WORKERS", 4),
			PollInterval:    getEnvAsDuration("SCAN_POLL_INTERVAL", "2s"),
			FetchTimeout:    getEnvAsDuration("SCAN_FETCH_TIMEOUT", "30s"),
			CompanyCooldown: getEnvAsDuration("SCAN_COMPANY_COOLDOWN", "60s"),
			ScannerCooldown: getEnvAsDuration("SCAN_SCANNER_COOLDOWN", "120s"),
			StaleJobAge:     getEnvAsDuration("SCAN_STALE_JOB_AGE", "15m"),
		},

		// Scoring
		Scoring: ScoringConfig{
			FactorFile:      getEnv("SCORING_FACTOR_FILE", ""),
			BenchmarkTicker: getEnv("SCORING_BENCHMARK", "SPY"),
			DuplicateWindow: getEnvAsDuration("SCORING_DUPLICATE_WINDOW", "168h"),
		},

		// Scheduler
		Schedule: ScheduleConfig{
			ScannerSweep: getEnv("SCHEDULE_SCANNER_SWEEP", "0 */10 * * * *"),
			PriceSync:    getEnv("SCHEDULE_PRICE_SYNC", "0 30 22 * * MON-FRI"),
			Outcomes:     getEnv("SCHEDULE_OUTCOMES", "0 0 23 * * MON-FRI"),
			JobJanitor:   getEnv("SCHEDULE_JOB_JANITOR", "0 * * * * *"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Scan.Workers < 1 {
		return fmt.Errorf("SCAN_WORKERS must be at least 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
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
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
