// Package stocks provides the stock price cache and per-user tracking.
package stocks

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Nitish151/stock-market-simulator/internal/domain"
)

// stocksColumns is the list of columns for the stocks table.
// Column order must match the scan helpers below.
const stocksColumns = `id, symbol, company_name, current_price, currency, last_updated, created_at`

// Repository handles stock database operations on the market database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new stock repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "stocks").Logger(),
	}
}

// GetBySymbol retrieves a stock by symbol. Returns (nil, nil) when the
// symbol has never been persisted.
func (r *Repository) GetBySymbol(symbol string) (*domain.Stock, error) {
	query := "SELECT " + stocksColumns + " FROM stocks WHERE symbol = ?"

	stock, err := scanStock(r.db.QueryRow(query, normalizeSymbol(symbol)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock by symbol: %w", err)
	}

	return stock, nil
}

// Upsert inserts a stock or updates its price, name, and currency
func (r *Repository) Upsert(stock *domain.Stock) error {
	now := time.Now().UTC()
	if stock.LastUpdated.IsZero() {
		stock.LastUpdated = now
	}

	query := `
		INSERT INTO stocks (symbol, company_name, current_price, currency, last_updated, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			company_name  = excluded.company_name,
			current_price = excluded.current_price,
			currency      = excluded.currency,
			last_updated  = excluded.last_updated
	`

	_, err := r.db.Exec(query,
		normalizeSymbol(stock.Symbol),
		stock.CompanyName,
		stock.CurrentPrice.String(),
		string(stock.Currency),
		stock.LastUpdated.Unix(),
		now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert stock: %w", err)
	}

	// Re-read to pick up the assigned id and stored timestamps
	stored, err := r.GetBySymbol(stock.Symbol)
	if err != nil {
		return err
	}
	if stored != nil {
		*stock = *stored
	}

	return nil
}

// List returns all persisted stocks ordered by symbol
func (r *Repository) List() ([]domain.Stock, error) {
	query := "SELECT " + stocksColumns + " FROM stocks ORDER BY symbol ASC"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	defer rows.Close()

	var stocks []domain.Stock
	for rows.Next() {
		stock, err := scanStockFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, *stock)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stocks: %w", err)
	}

	return stocks, nil
}

// Track marks a symbol as tracked by a user. Tracking twice is a no-op.
func (r *Repository) Track(userID int64, symbol string) error {
	query := `
		INSERT INTO tracked_stocks (user_id, symbol, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, symbol) DO NOTHING
	`

	_, err := r.db.Exec(query, userID, normalizeSymbol(symbol), time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to track stock: %w", err)
	}

	return nil
}

// Untrack removes a symbol from a user's tracked set
func (r *Repository) Untrack(userID int64, symbol string) error {
	_, err := r.db.Exec("DELETE FROM tracked_stocks WHERE user_id = ? AND symbol = ?",
		userID, normalizeSymbol(symbol))
	if err != nil {
		return fmt.Errorf("failed to untrack stock: %w", err)
	}

	return nil
}

// UserTracked returns the symbols tracked by one user
func (r *Repository) UserTracked(userID int64) ([]string, error) {
	rows, err := r.db.Query(
		"SELECT symbol FROM tracked_stocks WHERE user_id = ? ORDER BY symbol ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tracked stocks: %w", err)
	}
	defer rows.Close()

	return collectSymbols(rows)
}

// AllTracked returns the distinct symbols tracked by any user
func (r *Repository) AllTracked() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT symbol FROM tracked_stocks ORDER BY symbol ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to get all tracked stocks: %w", err)
	}
	defer rows.Close()

	return collectSymbols(rows)
}

func collectSymbols(rows *sql.Rows) ([]string, error) {
	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}

	return symbols, nil
}

// scanStock scans a stock from a single row
func scanStock(row *sql.Row) (*domain.Stock, error) {
	var (
		stock           domain.Stock
		priceStr        string
		currency        string
		lastUpdatedUnix int64
		createdAtUnix   int64
	)

	err := row.Scan(&stock.ID, &stock.Symbol, &stock.CompanyName, &priceStr, &currency, &lastUpdatedUnix, &createdAtUnix)
	if err != nil {
		return nil, err
	}

	return buildStock(&stock, priceStr, currency, lastUpdatedUnix, createdAtUnix)
}

// scanStockFromRows scans a stock from a rows iterator
func scanStockFromRows(rows *sql.Rows) (*domain.Stock, error) {
	var (
		stock           domain.Stock
		priceStr        string
		currency        string
		lastUpdatedUnix int64
		createdAtUnix   int64
	)

	err := rows.Scan(&stock.ID, &stock.Symbol, &stock.CompanyName, &priceStr, &currency, &lastUpdatedUnix, &createdAtUnix)
	if err != nil {
		return nil, err
	}

	return buildStock(&stock, priceStr, currency, lastUpdatedUnix, createdAtUnix)
}

func buildStock(stock *domain.Stock, priceStr, currency string, lastUpdatedUnix, createdAtUnix int64) (*domain.Stock, error) {
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q for stock %s: %w", priceStr, stock.Symbol, err)
	}

	stock.CurrentPrice = price
	stock.Currency = domain.Currency(currency)
	stock.LastUpdated = time.Unix(lastUpdatedUnix, 0).UTC()
	stock.CreatedAt = time.Unix(createdAtUnix, 0).UTC()

	return stock, nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
