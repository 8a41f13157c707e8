package trading

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nitish151/stock-market-simulator/internal/domain"
	"github.com/Nitish151/stock-market-simulator/internal/modules/portfolio"
	"github.com/Nitish151/stock-market-simulator/internal/modules/users"
	testhelper "github.com/Nitish151/stock-market-simulator/internal/testing"
)

// stubResolver serves fixed stocks without touching the market database.
type stubResolver struct {
	stocks map[string]*domain.Stock
}

func (r *stubResolver) Resolve(_ context.Context, symbol string) (*domain.Stock, error) {
	stock, ok := r.stocks[symbol]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	return stock, nil
}

func (r *stubResolver) setPrice(symbol string, price string) {
	r.stocks[symbol].CurrentPrice = decimal.RequireFromString(price)
}

type testEnv struct {
	service   *Service
	users     *users.Repository
	positions *portfolio.PositionRepository
	resolver  *stubResolver
	cleanup   func()
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, cleanup := testhelper.NewTestDB(t, "ledger")
	log := zerolog.Nop()

	userRepo := users.NewRepository(db.Conn(), log)
	positionRepo := portfolio.NewPositionRepository(db.Conn(), log)
	transactionRepo := NewTransactionRepository(db.Conn(), log)

	resolver := &stubResolver{stocks: map[string]*domain.Stock{
		"XYZ": {
			Symbol:       "XYZ",
			CompanyName:  "XYZ Corp",
			CurrentPrice: decimal.RequireFromString("50.00"),
			Currency:     domain.CurrencyUSD,
		},
	}}

	return &testEnv{
		service:   NewService(db.Conn(), userRepo, resolver, positionRepo, transactionRepo, log),
		users:     userRepo,
		positions: positionRepo,
		resolver:  resolver,
		cleanup:   cleanup,
	}
}

func (e *testEnv) createUser(t *testing.T, balance string) *domain.User {
	t.Helper()

	user := &domain.User{
		Username: "trader",
		Balance:  decimal.RequireFromString(balance),
	}
	require.NoError(t, e.users.Create(user))
	return user
}

func (e *testEnv) balance(t *testing.T, userID int64) decimal.Decimal {
	t.Helper()

	user, err := e.users.GetByID(userID)
	require.NoError(t, err)
	return user.Balance
}

func TestService_Buy(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	user := env.createUser(t, "1000")

	txn, err := env.service.Buy(context.Background(), user.ID, "XYZ", 10)
	require.NoError(t, err)

	assert.Equal(t, domain.SideBuy, txn.Side)
	assert.Equal(t, "XYZ", txn.Symbol)
	assert.Equal(t, int64(10), txn.Quantity)
	assert.True(t, txn.Total.Equal(decimal.RequireFromString("500")), "total was %s", txn.Total)
	assert.NotEmpty(t, txn.UUID)

	assert.True(t, env.balance(t, user.ID).Equal(decimal.RequireFromString("500")))

	position, err := env.positions.FindByUserAndSymbol(user.ID, "XYZ")
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, int64(10), position.Quantity)
	assert.True(t, position.AvgPrice.Equal(decimal.RequireFromString("50")))
}

func TestService_SellAfterBuy(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	user := env.createUser(t, "1000")

	_, err := env.service.Buy(context.Background(), user.ID, "XYZ", 10)
	require.NoError(t, err)

	env.resolver.setPrice("XYZ", "60.00")

	txn, err := env.service.Sell(context.Background(), user.ID, "XYZ", 4)
	require.NoError(t, err)

	assert.Equal(t, domain.SideSell, txn.Side)
	assert.True(t, txn.Total.Equal(decimal.RequireFromString("240")))

	// 1000 - 500 + 240
	assert.True(t, env.balance(t, user.ID).Equal(decimal.RequireFromString("740")))

	position, err := env.positions.FindByUserAndSymbol(user.ID, "XYZ")
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, int64(6), position.Quantity)
	// Selling never moves the average cost basis
	assert.True(t, position.AvgPrice.Equal(decimal.RequireFromString("50")))
}

func TestService_SellToZeroKeepsPosition(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	user := env.createUser(t, "1000")

	_, err := env.service.Buy(context.Background(), user.ID, "XYZ", 5)
	require.NoError(t, err)

	_, err = env.service.Sell(context.Background(), user.ID, "XYZ", 5)
	require.NoError(t, err)

	position, err := env.positions.FindByUserAndSymbol(user.ID, "XYZ")
	require.NoError(t, err)
	require.NotNil(t, position, "position row should survive at quantity zero")
	assert.Equal(t, int64(0), position.Quantity)
}

func TestService_BuyInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	user := env.createUser(t, "100")

	_, err := env.service.Buy(context.Background(), user.ID, "XYZ", 10)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// Nothing committed
	assert.True(t, env.balance(t, user.ID).Equal(decimal.RequireFromString("100")))

	position, err := env.positions.FindByUserAndSymbol(user.ID, "XYZ")
	require.NoError(t, err)
	assert.Nil(t, position)

	history, err := env.service.UserTransactions(user.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestService_BuyExactBalance(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	user := env.createUser(t, "500")

	_, err := env.service.Buy(context.Background(), user.ID, "XYZ", 10)
	require.NoError(t, err)

	assert.True(t, env.balance(t, user.ID).IsZero())
}

func TestService_SellWithoutPosition(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	user := env.createUser(t, "1000")

	_, err := env.service.Sell(context.Background(), user.ID, "XYZ", 1)
	assert.ErrorIs(t, err, domain.ErrNoPosition)

	assert.True(t, env.balance(t, user.ID).Equal(decimal.RequireFromString("1000")))
}

func TestService_SellMoreThanHeld(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	user := env.createUser(t, "1000")

	_, err := env.service.Buy(context.Background(), user.ID, "XYZ", 3)
	require.NoError(t, err)

	_, err = env.service.Sell(context.Background(), user.ID, "XYZ", 5)
	assert.ErrorIs(t, err, domain.ErrInsufficientShares)

	// The failed sell left balance and position untouched
	assert.True(t, env.balance(t, user.ID).Equal(decimal.RequireFromString("850")))

	position, err := env.positions.FindByUserAndSymbol(user.ID, "XYZ")
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, int64(3), position.Quantity)

	history, err := env.service.UserTransactions(user.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "only the buy should be recorded")
}

func TestService_InvalidQuantity(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	user := env.createUser(t, "1000")

	for _, quantity := range []int64{0, -1} {
		_, err := env.service.Buy(context.Background(), user.ID, "XYZ", quantity)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

		_, err = env.service.Sell(context.Background(), user.ID, "XYZ", quantity)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	}
}

func TestService_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	_, err := env.service.Buy(context.Background(), 42, "XYZ", 1)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestService_UnknownStock(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	user := env.createUser(t, "1000")

	_, err := env.service.Buy(context.Background(), user.ID, "NOPE", 1)
	assert.ErrorIs(t, err, domain.ErrStockNotFound)

	assert.True(t, env.balance(t, user.ID).Equal(decimal.RequireFromString("1000")))
}

func TestService_UserTransactionsOrderAndIsolation(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	alice := env.createUser(t, "1000")
	bob := &domain.User{Username: "bob", Balance: decimal.RequireFromString("1000")}
	require.NoError(t, env.users.Create(bob))

	_, err := env.service.Buy(context.Background(), alice.ID, "XYZ", 2)
	require.NoError(t, err)
	_, err = env.service.Buy(context.Background(), bob.ID, "XYZ", 7)
	require.NoError(t, err)
	_, err = env.service.Sell(context.Background(), alice.ID, "XYZ", 1)
	require.NoError(t, err)

	history, err := env.service.UserTransactions(alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 2, "history must contain only the user's own transactions")

	assert.Equal(t, domain.SideBuy, history[0].Side)
	assert.Equal(t, domain.SideSell, history[1].Side)
	assert.Equal(t, int64(2), history[0].Quantity)
	assert.Equal(t, int64(1), history[1].Quantity)
}

func TestService_AveragePriceOnRepeatedBuys(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	user := env.createUser(t, "10000")

	_, err := env.service.Buy(context.Background(), user.ID, "XYZ", 10)
	require.NoError(t, err)

	env.resolver.setPrice("XYZ", "100.00")

	_, err = env.service.Buy(context.Background(), user.ID, "XYZ", 10)
	require.NoError(t, err)

	position, err := env.positions.FindByUserAndSymbol(user.ID, "XYZ")
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, int64(20), position.Quantity)
	// (10*50 + 10*100) / 20
	assert.True(t, position.AvgPrice.Equal(decimal.RequireFromString("75")), "avg price was %s", position.AvgPrice)
}
