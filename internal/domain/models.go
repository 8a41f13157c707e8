// Package domain provides core domain models and types.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// Side represents the direction of an executed order
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether the side is one of the two known values
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// User holds a cash balance and identifies a trader.
// The balance is mutated only by the trading workflow and never goes negative.
type User struct {
	ID        int64           `json:"id"`
	UUID      string          `json:"uuid"`
	Username  string          `json:"username"`
	Email     string          `json:"email,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Stock is a tracked security with its most recently observed price.
// The price is owned by the quote source; the trading workflow only reads it.
type Stock struct {
	ID           int64           `json:"id"`
	Symbol       string          `json:"symbol"`
	CompanyName  string          `json:"company_name"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Currency     Currency        `json:"currency"`
	LastUpdated  time.Time       `json:"last_updated"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Position is a user's holding in a single stock. Quantity never goes
// negative; zero is a valid terminal state and does not delete the row.
type Position struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Symbol    string          `json:"symbol"`
	Quantity  int64           `json:"quantity"`
	AvgPrice  decimal.Decimal `json:"avg_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MarketValue returns the position's value at the given price
func (p *Position) MarketValue(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(p.Quantity))
}

// UnrealizedPL returns the profit or loss against the average cost
func (p *Position) UnrealizedPL(price decimal.Decimal) decimal.Decimal {
	return price.Sub(p.AvgPrice).Mul(decimal.NewFromInt(p.Quantity))
}

// Transaction is the immutable record of an executed order. Rows are
// append-only: never updated or deleted after creation.
type Transaction struct {
	ID          int64           `json:"id"`
	UUID        string          `json:"uuid"`
	UserID      int64           `json:"user_id"`
	Symbol      string          `json:"symbol"`
	CompanyName string          `json:"company_name"`
	Side        Side            `json:"side"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
	ExecutedAt  time.Time       `json:"executed_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TransactionSummary is the display-oriented view of a transaction returned
// by history queries.
type TransactionSummary struct {
	UUID        string          `json:"uuid"`
	Symbol      string          `json:"symbol"`
	CompanyName string          `json:"company_name"`
	Side        Side            `json:"side"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
	ExecutedAt  time.Time       `json:"executed_at"`
}

// Summary maps a transaction to its display form
func (t *Transaction) Summary() TransactionSummary {
	return TransactionSummary{
		UUID:        t.UUID,
		Symbol:      t.Symbol,
		CompanyName: t.CompanyName,
		Side:        t.Side,
		Price:       t.Price,
		Quantity:    t.Quantity,
		Total:       t.Total,
		ExecutedAt:  t.ExecutedAt,
	}
}
