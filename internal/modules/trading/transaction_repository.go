// Package trading implements the buy/sell order workflow and the immutable
// transaction log.
package trading

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Nitish151/stock-market-simulator/internal/database"
	"github.com/Nitish151/stock-market-simulator/internal/domain"
)

// transactionsColumns is the list of columns for the transactions table.
// Column order must match scanTransactionFromRows.
const transactionsColumns = `id, uuid, user_id, symbol, company_name, side, price, quantity, total, executed_at, created_at`

// TransactionRepository handles the append-only transaction log on the
// ledger database. Records are inserted once and never modified.
type TransactionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:  db,
		log: log.With().Str("repo", "transactions").Logger(),
	}
}

// CreateTx appends a transaction record within an explicit transactional
// scope, assigning ID and UUID.
func (r *TransactionRepository) CreateTx(q database.Querier, txn *domain.Transaction) error {
	if !txn.Side.Valid() {
		return fmt.Errorf("invalid transaction side %q", txn.Side)
	}
	if txn.UUID == "" {
		txn.UUID = uuid.NewString()
	}
	now := time.Now().UTC()
	txn.CreatedAt = now
	if txn.ExecutedAt.IsZero() {
		txn.ExecutedAt = now
	}

	query := `
		INSERT INTO transactions
		(uuid, user_id, symbol, company_name, side, price, quantity, total, executed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := q.Exec(query,
		txn.UUID,
		txn.UserID,
		txn.Symbol,
		txn.CompanyName,
		string(txn.Side),
		txn.Price.String(),
		txn.Quantity,
		txn.Total.String(),
		txn.ExecutedAt.Unix(),
		now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get transaction id: %w", err)
	}
	txn.ID = id

	return nil
}

// ListByUser returns all of one user's transactions in creation order
func (r *TransactionRepository) ListByUser(userID int64) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionsColumns + ` FROM transactions
		WHERE user_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		txn, err := scanTransactionFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// CountByUser returns the number of transactions recorded for a user
func (r *TransactionRepository) CountByUser(userID int64) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM transactions WHERE user_id = ?", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

// scanTransactionFromRows scans a transaction from a rows iterator
func scanTransactionFromRows(rows *sql.Rows) (*domain.Transaction, error) {
	var (
		txn            domain.Transaction
		side           string
		priceStr       string
		totalStr       string
		executedAtUnix int64
		createdAtUnix  int64
	)

	err := rows.Scan(&txn.ID, &txn.UUID, &txn.UserID, &txn.Symbol, &txn.CompanyName,
		&side, &priceStr, &txn.Quantity, &totalStr, &executedAtUnix, &createdAtUnix)
	if err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q for transaction %d: %w", priceStr, txn.ID, err)
	}
	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid total %q for transaction %d: %w", totalStr, txn.ID, err)
	}

	txn.Side = domain.Side(side)
	txn.Price = price
	txn.Total = total
	txn.ExecutedAt = time.Unix(executedAtUnix, 0).UTC()
	txn.CreatedAt = time.Unix(createdAtUnix, 0).UTC()

	return &txn, nil
}
