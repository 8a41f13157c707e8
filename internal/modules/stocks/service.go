package stocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nitish151/stock-market-simulator/internal/clients/quotes"
	"github.com/Nitish151/stock-market-simulator/internal/domain"
)

// RepositoryInterface defines the interface for stock persistence
type RepositoryInterface interface {
	GetBySymbol(symbol string) (*domain.Stock, error)
	Upsert(stock *domain.Stock) error
	List() ([]domain.Stock, error)
	Track(userID int64, symbol string) error
	Untrack(userID int64, symbol string) error
	UserTracked(userID int64) ([]string, error)
	AllTracked() ([]string, error)
}

// Compile-time check that Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)

// Service resolves stocks against the quote source, persisting them on
// first use, and manages per-user tracking.
type Service struct {
	repo   RepositoryInterface
	source quotes.Source
	maxAge time.Duration // Resolve refreshes prices older than this
	log    zerolog.Logger
}

// NewService creates a new stock service
func NewService(repo RepositoryInterface, source quotes.Source, maxAge time.Duration, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		source: source,
		maxAge: maxAge,
		log:    log.With().Str("service", "stocks").Logger(),
	}
}

// Resolve returns the stock for a symbol, fetching and persisting it on
// first use. A cached stock whose price is older than the configured max age
// is refreshed first, so order execution observes a current price.
// Idempotent: resolving a known fresh symbol performs no writes.
func (s *Service) Resolve(ctx context.Context, symbol string) (*domain.Stock, error) {
	stock, err := s.repo.GetBySymbol(symbol)
	if err != nil {
		return nil, err
	}

	if stock != nil && time.Since(stock.LastUpdated) <= s.maxAge {
		return stock, nil
	}

	refreshed, err := s.Refresh(ctx, symbol)
	if err != nil {
		// A stale cached price is still usable when the source is down;
		// an unknown symbol is not.
		if stock != nil && !errors.Is(err, domain.ErrStockNotFound) {
			s.log.Warn().Err(err).Str("symbol", stock.Symbol).Msg("Quote refresh failed, using cached price")
			return stock, nil
		}
		return nil, err
	}

	return refreshed, nil
}

// Refresh fetches the current quote for a symbol and persists it
func (s *Service) Refresh(ctx context.Context, symbol string) (*domain.Stock, error) {
	quote, err := s.source.Quote(ctx, symbol)
	if err != nil {
		if errors.Is(err, quotes.ErrSymbolNotFound) {
			return nil, domain.ErrStockNotFound
		}
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}

	stock := &domain.Stock{
		Symbol:       quote.Symbol,
		CompanyName:  quote.CompanyName,
		CurrentPrice: quote.Price,
		Currency:     quote.Currency,
		LastUpdated:  quote.AsOf,
	}

	if err := s.repo.Upsert(stock); err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("symbol", stock.Symbol).
		Str("price", stock.CurrentPrice.String()).
		Str("source", s.source.Name()).
		Msg("Stock refreshed")

	return stock, nil
}

// RefreshTracked refreshes the price of every stock tracked by any user.
// Individual failures are logged and skipped so one bad symbol cannot stall
// the rest of the refresh.
func (s *Service) RefreshTracked(ctx context.Context) error {
	symbols, err := s.repo.AllTracked()
	if err != nil {
		return err
	}

	for _, symbol := range symbols {
		if _, err := s.Refresh(ctx, symbol); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to refresh tracked stock")
		}
	}

	return nil
}

// List returns all persisted stocks
func (s *Service) List() ([]domain.Stock, error) {
	return s.repo.List()
}

// Track adds a symbol to a user's tracked set, resolving it first so the
// market database always holds a record for every tracked symbol.
func (s *Service) Track(ctx context.Context, userID int64, symbol string) (*domain.Stock, error) {
	stock, err := s.Resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Track(userID, stock.Symbol); err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", userID).Str("symbol", stock.Symbol).Msg("Stock tracked")

	return stock, nil
}

// Untrack removes a symbol from a user's tracked set
func (s *Service) Untrack(userID int64, symbol string) error {
	if err := s.repo.Untrack(userID, symbol); err != nil {
		return err
	}

	s.log.Info().Int64("user_id", userID).Str("symbol", symbol).Msg("Stock untracked")

	return nil
}

// UserTracked returns the symbols tracked by one user
func (s *Service) UserTracked(userID int64) ([]string, error) {
	return s.repo.UserTracked(userID)
}

// AllTracked returns the distinct symbols tracked by any user
func (s *Service) AllTracked() ([]string, error) {
	return s.repo.AllTracked()
}
