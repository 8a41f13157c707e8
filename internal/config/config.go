// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// QuoteSource selects where stock prices come from
type QuoteSource string

const (
	// QuoteSourceSim - built-in random-walk price simulator
	QuoteSourceSim QuoteSource = "sim"
	// QuoteSourceYahoo - Yahoo Finance chart API
	QuoteSourceYahoo QuoteSource = "yahoo"
)

// BackupConfig holds S3-compatible backup storage configuration.
// Backups are disabled when the bucket is empty.
type BackupConfig struct {
	Endpoint        string // Custom endpoint for S3-compatible stores (empty for AWS)
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Schedule        string // Cron schedule for the maintenance job
	Keep            int    // Number of backups to retain
}

// Enabled reports whether backups are configured
func (b *BackupConfig) Enabled() bool {
	return b.Bucket != ""
}

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for the databases, always absolute
	Port            int
	DevMode         bool
	LogLevel        string
	QuoteSource     QuoteSource
	QuoteMaxAge     time.Duration   // Resolve refreshes prices older than this
	SimSeed         uint64          // Seed for the simulated quote source (0 = random)
	StartingBalance decimal.Decimal // Cash balance granted to new users
	RefreshSchedule string          // Cron schedule for the tracked-stock price refresh
	Backup          *BackupConfig
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("SIMULATOR_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	startingBalance, err := decimal.NewFromString(getEnv("STARTING_BALANCE", "10000.00"))
	if err != nil {
		return nil, fmt.Errorf("invalid STARTING_BALANCE: %w", err)
	}

	quoteMaxAge, err := time.ParseDuration(getEnv("QUOTE_MAX_AGE", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid QUOTE_MAX_AGE: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("PORT", 8080),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		QuoteSource:     QuoteSource(getEnv("QUOTE_SOURCE", string(QuoteSourceSim))),
		QuoteMaxAge:     quoteMaxAge,
		SimSeed:         uint64(getEnvAsInt("SIM_SEED", 0)),
		StartingBalance: startingBalance,
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "@every 1m"),
		Backup: &BackupConfig{
			Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
			Region:          getEnv("BACKUP_S3_REGION", "auto"),
			Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
			AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
			Schedule:        getEnv("BACKUP_SCHEDULE", "@daily"),
			Keep:            getEnvAsInt("BACKUP_KEEP", 7),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	switch c.QuoteSource {
	case QuoteSourceSim, QuoteSourceYahoo:
	default:
		return fmt.Errorf("unknown QUOTE_SOURCE %q (expected sim or yahoo)", c.QuoteSource)
	}

	if c.StartingBalance.IsNegative() {
		return fmt.Errorf("STARTING_BALANCE must not be negative")
	}

	if c.Backup.Enabled() {
		if c.Backup.AccessKeyID == "" || c.Backup.SecretAccessKey == "" {
			return fmt.Errorf("backup bucket configured but S3 credentials missing")
		}
	}

	return nil
}

// LedgerDBPath returns the path of the ledger database
func (c *Config) LedgerDBPath() string {
	return filepath.Join(c.DataDir, "ledger.db")
}

// MarketDBPath returns the path of the market database
func (c *Config) MarketDBPath() string {
	return filepath.Join(c.DataDir, "market.db")
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
