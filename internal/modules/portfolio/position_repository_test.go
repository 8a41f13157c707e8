package portfolio

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nitish151/stock-market-simulator/internal/database"
	"github.com/Nitish151/stock-market-simulator/internal/domain"
	"github.com/Nitish151/stock-market-simulator/internal/modules/users"
	testhelper "github.com/Nitish151/stock-market-simulator/internal/testing"
)

func newTestRepo(t *testing.T) (*PositionRepository, int64, func()) {
	t.Helper()

	db, cleanup := testhelper.NewTestDB(t, "ledger")

	userRepo := users.NewRepository(db.Conn(), zerolog.Nop())
	user := &domain.User{Username: "alice", Balance: decimal.Zero}
	require.NoError(t, userRepo.Create(user))

	return NewPositionRepository(db.Conn(), zerolog.Nop()), user.ID, cleanup
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPositionRepository_IncreaseCreatesPosition(t *testing.T) {
	repo, userID, cleanup := newTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.IncreaseTx(repo.db, userID, "AAPL", 10, price("185.00")))

	position, err := repo.FindByUserAndSymbol(userID, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, int64(10), position.Quantity)
	assert.True(t, position.AvgPrice.Equal(price("185.00")))
}

func TestPositionRepository_IncreaseWeightsAveragePrice(t *testing.T) {
	repo, userID, cleanup := newTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.IncreaseTx(repo.db, userID, "AAPL", 10, price("100")))
	require.NoError(t, repo.IncreaseTx(repo.db, userID, "AAPL", 30, price("200")))

	position, err := repo.FindByUserAndSymbol(userID, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, int64(40), position.Quantity)
	// (10*100 + 30*200) / 40 = 175
	assert.True(t, position.AvgPrice.Equal(price("175")), "avg price was %s", position.AvgPrice)
}

func TestPositionRepository_DecreaseGuardsAgainstOverselling(t *testing.T) {
	repo, userID, cleanup := newTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.IncreaseTx(repo.db, userID, "AAPL", 5, price("100")))

	err := repo.DecreaseTx(repo.db, userID, "AAPL", 6)
	assert.ErrorIs(t, err, domain.ErrInsufficientShares)

	position, err := repo.FindByUserAndSymbol(userID, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(5), position.Quantity)
}

func TestPositionRepository_DecreaseMissingPosition(t *testing.T) {
	repo, userID, cleanup := newTestRepo(t)
	defer cleanup()

	err := repo.DecreaseTx(repo.db, userID, "AAPL", 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientShares)
}

func TestPositionRepository_DecreaseToZeroKeepsRow(t *testing.T) {
	repo, userID, cleanup := newTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.IncreaseTx(repo.db, userID, "AAPL", 5, price("100")))
	require.NoError(t, repo.DecreaseTx(repo.db, userID, "AAPL", 5))

	position, err := repo.FindByUserAndSymbol(userID, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, int64(0), position.Quantity)
	assert.True(t, position.AvgPrice.Equal(price("100")))
}

func TestPositionRepository_FindMissingReturnsNil(t *testing.T) {
	repo, userID, cleanup := newTestRepo(t)
	defer cleanup()

	position, err := repo.FindByUserAndSymbol(userID, "MSFT")
	require.NoError(t, err)
	assert.Nil(t, position)
}

func TestPositionRepository_ListByUser(t *testing.T) {
	repo, userID, cleanup := newTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.IncreaseTx(repo.db, userID, "AAPL", 1, price("185")))
	require.NoError(t, repo.IncreaseTx(repo.db, userID, "MSFT", 2, price("410")))

	positions, err := repo.ListByUser(userID)
	require.NoError(t, err)
	assert.Len(t, positions, 2)
}

func TestPositionRepository_InsideTransaction(t *testing.T) {
	db, cleanup := testhelper.NewTestDB(t, "ledger")
	defer cleanup()

	userRepo := users.NewRepository(db.Conn(), zerolog.Nop())
	user := &domain.User{Username: "alice", Balance: decimal.Zero}
	require.NoError(t, userRepo.Create(user))

	repo := NewPositionRepository(db.Conn(), zerolog.Nop())

	// A rolled-back transaction leaves no position behind
	err := database.WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if err := repo.IncreaseTx(tx, user.ID, "AAPL", 10, price("185")); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	position, err := repo.FindByUserAndSymbol(user.ID, "AAPL")
	require.NoError(t, err)
	assert.Nil(t, position)
}
