package trading

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Nitish151/stock-market-simulator/internal/database"
	"github.com/Nitish151/stock-market-simulator/internal/domain"
)

// UserStore defines the user operations the order workflow needs
type UserStore interface {
	// GetByID retrieves a user outside any transaction
	GetByID(id int64) (*domain.User, error)

	// GetByIDTx retrieves a user within an order's transaction
	GetByIDTx(q database.Querier, id int64) (*domain.User, error)

	// UpdateBalanceTx updates a balance within an order's transaction,
	// guarded against concurrent modification
	UpdateBalanceTx(q database.Querier, id int64, from, to decimal.Decimal) error
}

// PositionStore defines the position operations the order workflow needs
type PositionStore interface {
	FindByUserAndSymbolTx(q database.Querier, userID int64, symbol string) (*domain.Position, error)
	IncreaseTx(q database.Querier, userID int64, symbol string, quantity int64, price decimal.Decimal) error
	DecreaseTx(q database.Querier, userID int64, symbol string, quantity int64) error
}

// StockResolver resolves a symbol to a stock with a current price,
// fetching and persisting it on first use
type StockResolver interface {
	Resolve(ctx context.Context, symbol string) (*domain.Stock, error)
}

// TransactionStore defines the transaction log operations the workflow needs
type TransactionStore interface {
	CreateTx(q database.Querier, txn *domain.Transaction) error
	ListByUser(userID int64) ([]domain.Transaction, error)
}

// Compile-time checks against the concrete repository.
var _ TransactionStore = (*TransactionRepository)(nil)

// Service executes buy and sell orders atomically and serves transaction
// history.
//
// Every order runs as a single SQLite write transaction on the ledger
// database: balance mutation, transaction append, and position mutation
// either all commit or all roll back. SQLite serializes writers, so
// concurrent orders against the same user or position cannot interleave
// their read-modify-write sequences; the balance update carries an
// additional optimistic guard as a backstop.
type Service struct {
	ledgerDB     *sql.DB
	users        UserStore
	stocks       StockResolver
	positions    PositionStore
	transactions TransactionStore
	log          zerolog.Logger
}

// NewService creates a new trading service
func NewService(
	ledgerDB *sql.DB,
	users UserStore,
	stocks StockResolver,
	positions PositionStore,
	transactions TransactionStore,
	log zerolog.Logger,
) *Service {
	return &Service{
		ledgerDB:     ledgerDB,
		users:        users,
		stocks:       stocks,
		positions:    positions,
		transactions: transactions,
		log:          log.With().Str("service", "trading").Logger(),
	}
}

// Buy executes a buy order: debit the user's balance by price*quantity at
// the stock's current price, record a BUY transaction, and increase the
// user's position. All-or-nothing; on any failure no state change commits.
func (s *Service) Buy(ctx context.Context, userID int64, symbol string, quantity int64) (*domain.Transaction, error) {
	s.log.Info().
		Int64("user_id", userID).
		Str("symbol", symbol).
		Int64("quantity", quantity).
		Msg("Processing buy order")

	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	// User existence is checked before the quote fetch so an unknown user
	// reports NotFound rather than a quote error.
	if _, err := s.users.GetByID(userID); err != nil {
		return nil, err
	}

	// Resolve the stock outside the ledger transaction: the quote fetch may
	// hit the network and must not hold the write transaction open.
	stock, err := s.stocks.Resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}

	var txn *domain.Transaction
	err = database.WithTransaction(s.ledgerDB, func(tx *sql.Tx) error {
		user, err := s.users.GetByIDTx(tx, userID)
		if err != nil {
			return err
		}

		cost := stock.CurrentPrice.Mul(decimal.NewFromInt(quantity))
		if user.Balance.LessThan(cost) {
			s.log.Warn().
				Int64("user_id", userID).
				Str("balance", user.Balance.String()).
				Str("cost", cost.String()).
				Msg("Insufficient balance for buy order")
			return domain.ErrInsufficientFunds
		}

		if err := s.users.UpdateBalanceTx(tx, userID, user.Balance, user.Balance.Sub(cost)); err != nil {
			return err
		}

		txn = &domain.Transaction{
			UserID:      userID,
			Symbol:      stock.Symbol,
			CompanyName: stock.CompanyName,
			Side:        domain.SideBuy,
			Price:       stock.CurrentPrice,
			Quantity:    quantity,
			Total:       cost,
			ExecutedAt:  time.Now().UTC(),
		}
		if err := s.transactions.CreateTx(tx, txn); err != nil {
			return err
		}

		return s.positions.IncreaseTx(tx, userID, stock.Symbol, quantity, stock.CurrentPrice)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("user_id", userID).
		Str("symbol", stock.Symbol).
		Int64("quantity", quantity).
		Str("total", txn.Total.String()).
		Msg("Buy order executed")

	return txn, nil
}

// Sell executes a sell order: credit the user's balance by price*quantity
// at the stock's current price, record a SELL transaction, and decrease the
// user's position. Selling down to exactly zero keeps the position row.
// All-or-nothing; on any failure no state change commits.
func (s *Service) Sell(ctx context.Context, userID int64, symbol string, quantity int64) (*domain.Transaction, error) {
	s.log.Info().
		Int64("user_id", userID).
		Str("symbol", symbol).
		Int64("quantity", quantity).
		Msg("Processing sell order")

	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	if _, err := s.users.GetByID(userID); err != nil {
		return nil, err
	}

	stock, err := s.stocks.Resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}

	var txn *domain.Transaction
	err = database.WithTransaction(s.ledgerDB, func(tx *sql.Tx) error {
		user, err := s.users.GetByIDTx(tx, userID)
		if err != nil {
			return err
		}

		position, err := s.positions.FindByUserAndSymbolTx(tx, userID, stock.Symbol)
		if err != nil {
			return err
		}
		if position == nil {
			s.log.Warn().
				Int64("user_id", userID).
				Str("symbol", stock.Symbol).
				Msg("Sell order against unowned stock")
			return domain.ErrNoPosition
		}
		if position.Quantity < quantity {
			s.log.Warn().
				Int64("user_id", userID).
				Str("symbol", stock.Symbol).
				Int64("held", position.Quantity).
				Int64("requested", quantity).
				Msg("Insufficient shares for sell order")
			return domain.ErrInsufficientShares
		}

		proceeds := stock.CurrentPrice.Mul(decimal.NewFromInt(quantity))

		if err := s.users.UpdateBalanceTx(tx, userID, user.Balance, user.Balance.Add(proceeds)); err != nil {
			return err
		}

		txn = &domain.Transaction{
			UserID:      userID,
			Symbol:      stock.Symbol,
			CompanyName: stock.CompanyName,
			Side:        domain.SideSell,
			Price:       stock.CurrentPrice,
			Quantity:    quantity,
			Total:       proceeds,
			ExecutedAt:  time.Now().UTC(),
		}
		if err := s.transactions.CreateTx(tx, txn); err != nil {
			return err
		}

		return s.positions.DecreaseTx(tx, userID, stock.Symbol, quantity)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("user_id", userID).
		Str("symbol", stock.Symbol).
		Int64("quantity", quantity).
		Str("total", txn.Total.String()).
		Msg("Sell order executed")

	return txn, nil
}

// UserTransactions returns a user's full transaction history in creation
// order, mapped to display summaries.
func (s *Service) UserTransactions(userID int64) ([]domain.TransactionSummary, error) {
	transactions, err := s.transactions.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.TransactionSummary, 0, len(transactions))
	for i := range transactions {
		summaries = append(summaries, transactions[i].Summary())
	}

	return summaries, nil
}
