// Package quotes provides stock quote sources: a built-in random-walk
// simulator and a Yahoo Finance client.
package quotes

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Nitish151/stock-market-simulator/internal/domain"
)

// ErrSymbolNotFound is returned when a source does not know the symbol
var ErrSymbolNotFound = errors.New("quotes: symbol not found")

// Quote is a point-in-time observation of a stock's price
type Quote struct {
	Symbol      string
	CompanyName string
	Price       decimal.Decimal
	Currency    domain.Currency
	AsOf        time.Time
}

// Source abstracts where quotes come from
type Source interface {
	// Name returns the source identifier (e.g. "sim", "yahoo")
	Name() string

	// Quote returns the current quote for a symbol
	Quote(ctx context.Context, symbol string) (*Quote, error)
}
