// Package portfolio manages share positions held by users.
package portfolio

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Nitish151/stock-market-simulator/internal/database"
	"github.com/Nitish151/stock-market-simulator/internal/domain"
)

// positionsColumns is the list of columns for the positions table.
// Column order must match the scan helpers below.
const positionsColumns = `id, user_id, symbol, quantity, avg_price, created_at, updated_at`

// PositionRepository handles position database operations on the ledger database
type PositionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repo", "positions").Logger(),
	}
}

// FindByUserAndSymbol retrieves a user's position in a stock.
// Returns (nil, nil) when the user never bought the stock.
func (r *PositionRepository) FindByUserAndSymbol(userID int64, symbol string) (*domain.Position, error) {
	return r.find(r.db, userID, symbol)
}

// FindByUserAndSymbolTx retrieves a position within an explicit transactional scope
func (r *PositionRepository) FindByUserAndSymbolTx(q database.Querier, userID int64, symbol string) (*domain.Position, error) {
	return r.find(q, userID, symbol)
}

func (r *PositionRepository) find(q database.Querier, userID int64, symbol string) (*domain.Position, error) {
	query := "SELECT " + positionsColumns + " FROM positions WHERE user_id = ? AND symbol = ?"

	pos, err := scanPosition(q.QueryRow(query, userID, normalizeSymbol(symbol)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find position: %w", err)
	}

	return pos, nil
}

// ListByUser returns all of a user's positions, including closed ones
// (quantity zero), ordered by symbol.
func (r *PositionRepository) ListByUser(userID int64) ([]domain.Position, error) {
	query := "SELECT " + positionsColumns + " FROM positions WHERE user_id = ? ORDER BY symbol ASC"

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		pos, err := scanPositionFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, *pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// IncreaseTx increases a user's position by quantity at the given execution
// price, creating the position on first buy. The average price is the
// quantity-weighted average of the previous holding and this purchase.
// Must run within an order's transaction.
func (r *PositionRepository) IncreaseTx(q database.Querier, userID int64, symbol string, quantity int64, price decimal.Decimal) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	symbol = normalizeSymbol(symbol)
	now := time.Now().UTC().Unix()

	existing, err := r.find(q, userID, symbol)
	if err != nil {
		return err
	}

	if existing == nil {
		query := `
			INSERT INTO positions (user_id, symbol, quantity, avg_price, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		if _, err := q.Exec(query, userID, symbol, quantity, price.String(), now, now); err != nil {
			return fmt.Errorf("failed to create position: %w", err)
		}
		return nil
	}

	oldQty := decimal.NewFromInt(existing.Quantity)
	newQty := decimal.NewFromInt(existing.Quantity + quantity)
	cost := price.Mul(decimal.NewFromInt(quantity))
	avgPrice := existing.AvgPrice.Mul(oldQty).Add(cost).Div(newQty).Round(4)

	query := `
		UPDATE positions SET quantity = quantity + ?, avg_price = ?, updated_at = ?
		WHERE user_id = ? AND symbol = ?
	`
	if _, err := q.Exec(query, quantity, avgPrice.String(), now, userID, symbol); err != nil {
		return fmt.Errorf("failed to increase position: %w", err)
	}

	return nil
}

// DecreaseTx decreases a user's position by quantity. The decrement is
// guarded in SQL against overselling: if the held quantity is smaller than
// the requested one, no row is modified and domain.ErrInsufficientShares is
// returned. A position sold down to exactly zero is kept, not deleted.
// Must run within an order's transaction.
func (r *PositionRepository) DecreaseTx(q database.Querier, userID int64, symbol string, quantity int64) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	query := `
		UPDATE positions SET quantity = quantity - ?, updated_at = ?
		WHERE user_id = ? AND symbol = ? AND quantity >= ?
	`

	result, err := q.Exec(query, quantity, time.Now().UTC().Unix(), userID, normalizeSymbol(symbol), quantity)
	if err != nil {
		return fmt.Errorf("failed to decrease position: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check position decrease: %w", err)
	}
	if affected == 0 {
		return domain.ErrInsufficientShares
	}

	return nil
}

// scanPosition scans a position from a single row
func scanPosition(row *sql.Row) (*domain.Position, error) {
	var (
		pos           domain.Position
		avgPriceStr   string
		createdAtUnix int64
		updatedAtUnix int64
	)

	err := row.Scan(&pos.ID, &pos.UserID, &pos.Symbol, &pos.Quantity, &avgPriceStr, &createdAtUnix, &updatedAtUnix)
	if err != nil {
		return nil, err
	}

	return buildPosition(&pos, avgPriceStr, createdAtUnix, updatedAtUnix)
}

// scanPositionFromRows scans a position from a rows iterator
func scanPositionFromRows(rows *sql.Rows) (*domain.Position, error) {
	var (
		pos           domain.Position
		avgPriceStr   string
		createdAtUnix int64
		updatedAtUnix int64
	)

	err := rows.Scan(&pos.ID, &pos.UserID, &pos.Symbol, &pos.Quantity, &avgPriceStr, &createdAtUnix, &updatedAtUnix)
	if err != nil {
		return nil, err
	}

	return buildPosition(&pos, avgPriceStr, createdAtUnix, updatedAtUnix)
}

func buildPosition(pos *domain.Position, avgPriceStr string, createdAtUnix, updatedAtUnix int64) (*domain.Position, error) {
	avgPrice, err := decimal.NewFromString(avgPriceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid avg_price %q for position %d: %w", avgPriceStr, pos.ID, err)
	}

	pos.AvgPrice = avgPrice
	pos.CreatedAt = time.Unix(createdAtUnix, 0).UTC()
	pos.UpdatedAt = time.Unix(updatedAtUnix, 0).UTC()

	return pos, nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
