// Package jobs holds the scheduled jobs for the stocks module.
package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nitish151/stock-market-simulator/internal/modules/stocks"
)

// RefreshJob re-prices every tracked stock from the quote source.
type RefreshJob struct {
	stockService *stocks.Service
	timeout      time.Duration
	log          zerolog.Logger
}

// NewRefreshJob creates the tracked-stock price refresh job
func NewRefreshJob(stockService *stocks.Service, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		stockService: stockService,
		timeout:      time.Minute,
		log:          log.With().Str("job", "price_refresh").Logger(),
	}
}

// Name returns the job name for the scheduler
func (j *RefreshJob) Name() string {
	return "price_refresh"
}

// Run refreshes all tracked stocks
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	return j.stockService.RefreshTracked(ctx)
}
