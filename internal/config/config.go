// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backend and encoding names accepted by CACHE_BACKEND / CACHE_FORMAT.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"

	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// Config holds application configuration
type Config struct {
	DataDir      string // Per-user application-support directory holding cache documents
	LogLevel     string
	LogPretty    bool
	DevMode      bool // Disables response compression
	Port         int
	CacheBackend string
	CacheFormat  string
	UniverseFile string
	FinnhubKey   string // Optional; the candle fallback is disabled without it

	// Cron specs, evaluated in Eastern time
	QuoteRefreshSchedule string
	InvalidationSchedule string
	BackupSchedule       string

	HighestCloseDailyRefresh bool
	SwingDailyRefresh        bool

	R2 R2Config
}

// R2Config holds Cloudflare R2 credentials for cache backups
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	RetentionDays   int
}

// Enabled reports whether all credentials required for backups are present.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("QUOTEBAR_DATA_DIR", "")
	if dataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user config directory: %w", err)
		}
		dataDir = filepath.Join(base, "QuoteBar")
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:      absDataDir,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogPretty:    getEnvAsBool("LOG_PRETTY", false),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		Port:         getEnvAsInt("PORT", 8087),
		CacheBackend: strings.ToLower(getEnv("CACHE_BACKEND", BackendFile)),
		CacheFormat:  strings.ToLower(getEnv("CACHE_FORMAT", FormatJSON)),
		UniverseFile: getEnv("UNIVERSE_FILE", filepath.Join(absDataDir, "universe.yaml")),
		FinnhubKey:   getEnv("FINNHUB_API_KEY", ""),

		QuoteRefreshSchedule: getEnv("QUOTE_REFRESH_SCHEDULE", "@every 60s"),
		InvalidationSchedule: getEnv("INVALIDATION_SCHEDULE", "0 5 0 * * *"),
		BackupSchedule:       getEnv("BACKUP_SCHEDULE", "0 30 3 * * *"),

		HighestCloseDailyRefresh: getEnvAsBool("HIGHEST_CLOSE_DAILY_REFRESH", true),
		SwingDailyRefresh:        getEnvAsBool("SWING_DAILY_REFRESH", true),

		R2: R2Config{
			AccountID:       getEnv("R2_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			BucketName:      getEnv("R2_BUCKET_NAME", ""),
			RetentionDays:   getEnvAsInt("R2_RETENTION_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that enumerated settings hold known values
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q (want %s or %s)", c.CacheBackend, BackendFile, BackendSQLite)
	}

	switch c.CacheFormat {
	case FormatJSON, FormatMsgpack:
	default:
		return fmt.Errorf("unknown CACHE_FORMAT %q (want %s or %s)", c.CacheFormat, FormatJSON, FormatMsgpack)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
