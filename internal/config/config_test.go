package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SIMULATOR_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, QuoteSourceSim, cfg.QuoteSource)
	assert.Equal(t, time.Minute, cfg.QuoteMaxAge)
	assert.True(t, cfg.StartingBalance.Equal(decimal.RequireFromString("10000.00")))
	assert.Equal(t, "@every 1m", cfg.RefreshSchedule)
	assert.False(t, cfg.Backup.Enabled())
	assert.Equal(t, 7, cfg.Backup.Keep)
}

func TestLoad_Overrides(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("SIMULATOR_DATA_DIR", dataDir)
	t.Setenv("PORT", "9090")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("QUOTE_SOURCE", "yahoo")
	t.Setenv("QUOTE_MAX_AGE", "30s")
	t.Setenv("STARTING_BALANCE", "500.50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, QuoteSourceYahoo, cfg.QuoteSource)
	assert.Equal(t, 30*time.Second, cfg.QuoteMaxAge)
	assert.True(t, cfg.StartingBalance.Equal(decimal.RequireFromString("500.50")))

	assert.Equal(t, filepath.Join(cfg.DataDir, "ledger.db"), cfg.LedgerDBPath())
	assert.Equal(t, filepath.Join(cfg.DataDir, "market.db"), cfg.MarketDBPath())
}

func TestLoad_InvalidQuoteSource(t *testing.T) {
	t.Setenv("SIMULATOR_DATA_DIR", t.TempDir())
	t.Setenv("QUOTE_SOURCE", "bloomberg")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_NegativeStartingBalance(t *testing.T) {
	t.Setenv("SIMULATOR_DATA_DIR", t.TempDir())
	t.Setenv("STARTING_BALANCE", "-5")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_BackupRequiresCredentials(t *testing.T) {
	t.Setenv("SIMULATOR_DATA_DIR", t.TempDir())
	t.Setenv("BACKUP_S3_BUCKET", "backups")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("BACKUP_S3_ACCESS_KEY_ID", "key")
	t.Setenv("BACKUP_S3_SECRET_ACCESS_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Backup.Enabled())
}
