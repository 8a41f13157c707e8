package stocks

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nitish151/stock-market-simulator/internal/clients/quotes"
	"github.com/Nitish151/stock-market-simulator/internal/domain"
	testhelper "github.com/Nitish151/stock-market-simulator/internal/testing"
)

// fakeSource serves canned quotes and counts fetches.
type fakeSource struct {
	quotes map[string]quotes.Quote
	err    error
	calls  int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Quote(_ context.Context, symbol string) (*quotes.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, quotes.ErrSymbolNotFound
	}
	return &q, nil
}

func newTestService(t *testing.T, source quotes.Source, maxAge time.Duration) (*Service, func()) {
	t.Helper()

	db, cleanup := testhelper.NewTestDB(t, "market")
	repo := NewRepository(db.Conn(), zerolog.Nop())
	return NewService(repo, source, maxAge, zerolog.Nop()), cleanup
}

func aaplQuote(price string) quotes.Quote {
	return quotes.Quote{
		Symbol:      "AAPL",
		CompanyName: "Apple Inc.",
		Price:       decimal.RequireFromString(price),
		Currency:    domain.CurrencyUSD,
		AsOf:        time.Now().UTC(),
	}
}

func TestService_ResolveFetchesOnFirstUse(t *testing.T) {
	source := &fakeSource{quotes: map[string]quotes.Quote{"AAPL": aaplQuote("185.00")}}
	service, cleanup := newTestService(t, source, time.Minute)
	defer cleanup()

	stock, err := service.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", stock.Symbol)
	assert.Equal(t, "Apple Inc.", stock.CompanyName)
	assert.True(t, stock.CurrentPrice.Equal(decimal.RequireFromString("185.00")))
	assert.Equal(t, 1, source.calls)

	// Second resolve within max age is served from the cache
	_, err = service.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
}

func TestService_ResolveRefreshesStalePrice(t *testing.T) {
	source := &fakeSource{quotes: map[string]quotes.Quote{"AAPL": aaplQuote("185.00")}}
	service, cleanup := newTestService(t, source, 0)
	defer cleanup()

	_, err := service.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)

	source.quotes["AAPL"] = aaplQuote("190.00")

	stock, err := service.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, stock.CurrentPrice.Equal(decimal.RequireFromString("190.00")))
	assert.Equal(t, 2, source.calls)
}

func TestService_ResolveFallsBackToCacheWhenSourceDown(t *testing.T) {
	source := &fakeSource{quotes: map[string]quotes.Quote{"AAPL": aaplQuote("185.00")}}
	service, cleanup := newTestService(t, source, 0)
	defer cleanup()

	_, err := service.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)

	source.err = assert.AnError

	stock, err := service.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, stock.CurrentPrice.Equal(decimal.RequireFromString("185.00")))
}

func TestService_ResolveUnknownSymbol(t *testing.T) {
	source := &fakeSource{quotes: map[string]quotes.Quote{}}
	service, cleanup := newTestService(t, source, time.Minute)
	defer cleanup()

	_, err := service.Resolve(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrStockNotFound)
}

func TestService_TrackAndUntrack(t *testing.T) {
	source := &fakeSource{quotes: map[string]quotes.Quote{"AAPL": aaplQuote("185.00")}}
	service, cleanup := newTestService(t, source, time.Minute)
	defer cleanup()

	stock, err := service.Track(context.Background(), 1, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", stock.Symbol)

	// Tracking twice is idempotent
	_, err = service.Track(context.Background(), 1, "AAPL")
	require.NoError(t, err)

	tracked, err := service.UserTracked(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, tracked)

	all, err := service.AllTracked()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, all)

	require.NoError(t, service.Untrack(1, "AAPL"))

	tracked, err = service.UserTracked(1)
	require.NoError(t, err)
	assert.Empty(t, tracked)
}

func TestService_TrackUnknownSymbol(t *testing.T) {
	source := &fakeSource{quotes: map[string]quotes.Quote{}}
	service, cleanup := newTestService(t, source, time.Minute)
	defer cleanup()

	_, err := service.Track(context.Background(), 1, "NOPE")
	assert.ErrorIs(t, err, domain.ErrStockNotFound)
}

func TestService_RefreshTracked(t *testing.T) {
	source := &fakeSource{quotes: map[string]quotes.Quote{
		"AAPL": aaplQuote("185.00"),
	}}
	service, cleanup := newTestService(t, source, time.Minute)
	defer cleanup()

	_, err := service.Track(context.Background(), 1, "AAPL")
	require.NoError(t, err)

	source.quotes["AAPL"] = aaplQuote("200.00")

	require.NoError(t, service.RefreshTracked(context.Background()))

	stock, err := service.repo.GetBySymbol("AAPL")
	require.NoError(t, err)
	assert.True(t, stock.CurrentPrice.Equal(decimal.RequireFromString("200.00")))
}
