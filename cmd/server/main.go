// Package main is the entry point for the stock market simulator backend.
// It wires the databases, quote source, module services and HTTP server,
// starts the background jobs and waits for a shutdown signal.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nitish151/stock-market-simulator/internal/clients/quotes"
	"github.com/Nitish151/stock-market-simulator/internal/config"
	"github.com/Nitish151/stock-market-simulator/internal/database"
	"github.com/Nitish151/stock-market-simulator/internal/modules/portfolio"
	portfoliohandlers "github.com/Nitish151/stock-market-simulator/internal/modules/portfolio/handlers"
	"github.com/Nitish151/stock-market-simulator/internal/modules/stocks"
	stockshandlers "github.com/Nitish151/stock-market-simulator/internal/modules/stocks/handlers"
	stocksjobs "github.com/Nitish151/stock-market-simulator/internal/modules/stocks/jobs"
	"github.com/Nitish151/stock-market-simulator/internal/modules/trading"
	tradinghandlers "github.com/Nitish151/stock-market-simulator/internal/modules/trading/handlers"
	"github.com/Nitish151/stock-market-simulator/internal/modules/users"
	usershandlers "github.com/Nitish151/stock-market-simulator/internal/modules/users/handlers"
	"github.com/Nitish151/stock-market-simulator/internal/reliability"
	"github.com/Nitish151/stock-market-simulator/internal/scheduler"
	"github.com/Nitish151/stock-market-simulator/internal/server"
	"github.com/Nitish151/stock-market-simulator/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting stock market simulator")

	ledgerDB, err := database.New(database.Config{
		Path:    cfg.LedgerDBPath(),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	marketDB, err := database.New(database.Config{
		Path:    cfg.MarketDBPath(),
		Profile: database.ProfileStandard,
		Name:    "market",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open market database")
	}
	defer marketDB.Close()

	for _, db := range []*database.DB{ledgerDB, marketDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to migrate database")
		}
	}

	quoteSource := newQuoteSource(cfg, log)
	log.Info().Str("source", quoteSource.Name()).Msg("Quote source selected")

	// Repositories
	userRepo := users.NewRepository(ledgerDB.Conn(), log)
	positionRepo := portfolio.NewPositionRepository(ledgerDB.Conn(), log)
	transactionRepo := trading.NewTransactionRepository(ledgerDB.Conn(), log)
	stockRepo := stocks.NewRepository(marketDB.Conn(), log)

	// Services
	userService := users.NewService(userRepo, cfg.StartingBalance, log)
	stockService := stocks.NewService(stockRepo, quoteSource, cfg.QuoteMaxAge, log)
	portfolioService := portfolio.NewService(positionRepo, stockRepo, log)
	tradingService := trading.NewService(
		ledgerDB.Conn(),
		userRepo,
		stockService,
		positionRepo,
		transactionRepo,
		log,
	)

	// Background jobs
	sched := scheduler.New(log)
	refreshJob := stocksjobs.NewRefreshJob(stockService, log)
	if err := sched.AddJob(cfg.RefreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register price refresh job")
	}

	backupService := newBackupService(cfg, ledgerDB, marketDB, log)
	maintenanceJob := reliability.NewMaintenanceJob(
		[]*database.DB{ledgerDB, marketDB},
		backupService,
		cfg.Backup.Keep,
		log,
	)
	if err := sched.AddJob(cfg.Backup.Schedule, maintenanceJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}

	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:      log,
		LedgerDB: ledgerDB,
		MarketDB: marketDB,
		Config:   cfg,
		Port:     cfg.Port,
		DevMode:  cfg.DevMode,
		Modules: []server.RouteRegistrar{
			usershandlers.NewHandler(userService, log),
			stockshandlers.NewHandler(stockService, log),
			portfoliohandlers.NewHandler(portfolioService, log),
			tradinghandlers.NewHandler(tradingService, log),
		},
		StockService: stockService,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatal().Err(err).Msg("HTTP server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Stopped")
}

// newQuoteSource selects the price provider from configuration.
func newQuoteSource(cfg *config.Config, log zerolog.Logger) quotes.Source {
	switch cfg.QuoteSource {
	case config.QuoteSourceYahoo:
		return quotes.NewYahooClient(log)
	default:
		return quotes.NewSimulatedSource(cfg.SimSeed, log)
	}
}

// newBackupService returns nil when no backup bucket is configured.
func newBackupService(cfg *config.Config, ledgerDB, marketDB *database.DB, log zerolog.Logger) *reliability.BackupService {
	if !cfg.Backup.Enabled() {
		log.Info().Msg("Backups disabled, no bucket configured")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s3Client, err := reliability.NewS3Client(ctx, cfg.Backup, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create backup storage client")
	}

	return reliability.NewBackupService(
		[]*database.DB{ledgerDB, marketDB},
		s3Client,
		cfg.DataDir,
		log,
	)
}
