package quotes

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedSource_KnownSymbol(t *testing.T) {
	source := NewSimulatedSource(1, zerolog.Nop())

	quote, err := source.Quote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, "Apple Inc.", quote.CompanyName)
	assert.True(t, quote.Price.Equal(decimal.RequireFromString("185")), "first quote is the base price, got %s", quote.Price)
	assert.False(t, quote.AsOf.IsZero())
}

func TestSimulatedSource_SymbolNormalization(t *testing.T) {
	source := NewSimulatedSource(1, zerolog.Nop())

	quote, err := source.Quote(context.Background(), "  aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Symbol)
}

func TestSimulatedSource_UnknownSymbol(t *testing.T) {
	source := NewSimulatedSource(1, zerolog.Nop())

	_, err := source.Quote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestSimulatedSource_WalkIsDeterministicUnderSeed(t *testing.T) {
	quoteSeries := func(seed uint64) []string {
		source := NewSimulatedSource(seed, zerolog.Nop())

		clock := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
		source.now = func() time.Time { return clock }

		var prices []string
		for i := 0; i < 5; i++ {
			clock = clock.Add(time.Minute)
			quote, err := source.Quote(context.Background(), "XYZ")
			require.NoError(t, err)
			prices = append(prices, quote.Price.String())
		}
		return prices
	}

	assert.Equal(t, quoteSeries(7), quoteSeries(7))
	assert.NotEqual(t, quoteSeries(7), quoteSeries(8))
}

func TestSimulatedSource_PricesStayPositive(t *testing.T) {
	source := NewSimulatedSource(42, zerolog.Nop())

	clock := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	source.now = func() time.Time { return clock }

	for i := 0; i < 200; i++ {
		clock = clock.Add(time.Hour)
		quote, err := source.Quote(context.Background(), "KO")
		require.NoError(t, err)
		assert.True(t, quote.Price.IsPositive(), "price went non-positive after %d steps", i)
	}
}
