package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port           string
	DatabaseURL    string
	UseMemoryStore bool
	LogLevel       string

	// Market data providers
	TiingoAPIKey       string
	TiingoBaseURL      string
	AlphaVantageAPIKey string
	AlphaVantageURL    string
	ProviderTimeout    time.Duration

	// Admin endpoints
	AdminAPIKey string

	// Caching and staleness
	CacheTTL          time.Duration
	MetricsStaleAfter time.Duration

	// Scheduler
	SyncCron          string
	MetricsCron       string
	RunOnStart        bool
	SyncConcurrency   int
	SyncLookbackYears int

	// HTTP
	AllowedOrigins []string

	// Fund universe and default ranking weights (YAML)
	UniversePath string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file into Cfg.
// It terminates the process when the configuration is unusable.
func LoadConfig() {
	loadDotEnv()

	cfg, err := FromEnv()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	Cfg = cfg

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, MemoryStore=%t, Universe=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.UseMemoryStore, Cfg.UniversePath)
}

func loadDotEnv() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try the parent directory (common when running from cmd/)
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}
}

// FromEnv builds an AppConfig from the current process environment.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		UseMemoryStore: getEnvAsBool("USE_MEMORY_STORE", false),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		TiingoAPIKey:       getEnv("TIINGO_API_KEY", ""),
		TiingoBaseURL:      getEnv("TIINGO_BASE_URL", "https://api.tiingo.com"),
		AlphaVantageAPIKey: getEnv("ALPHA_VANTAGE_API_KEY", ""),
		AlphaVantageURL:    getEnv("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co"),
		ProviderTimeout:    getEnvAsDuration("PROVIDER_TIMEOUT", 20*time.Second),

		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		CacheTTL:          getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		MetricsStaleAfter: getEnvAsDuration("METRICS_STALE_AFTER", 24*time.Hour),

		SyncCron:          getEnv("SYNC_CRON", "0 30 21 * * 1-5"),
		MetricsCron:       getEnv("METRICS_CRON", "0 0 22 * * 1-5"),
		RunOnStart:        getEnvAsBool("RUN_ON_START", false),
		SyncConcurrency:   getEnvAsInt("SYNC_CONCURRENCY", 4),
		SyncLookbackYears: getEnvAsInt("SYNC_LOOKBACK_YEARS", 4),

		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),

		UniversePath: getEnv("UNIVERSE_PATH", "data/universe.yaml"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no usable default.
func (c *AppConfig) Validate() error {
	if !c.UseMemoryStore && strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required unless USE_MEMORY_STORE=true")
	}
	if c.SyncConcurrency < 1 {
		return fmt.Errorf("SYNC_CONCURRENCY must be positive, got %d", c.SyncConcurrency)
	}
	if c.SyncLookbackYears < 1 {
		return fmt.Errorf("SYNC_LOOKBACK_YEARS must be positive, got %d", c.SyncLookbackYears)
	}
	if c.AdminAPIKey != "" && len(c.AdminAPIKey) < 16 {
		return fmt.Errorf("ADMIN_API_KEY must be at least 16 characters")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a fallback.
func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
