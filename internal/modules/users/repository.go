// Package users manages trader accounts and their cash balances.
package users

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Nitish151/stock-market-simulator/internal/database"
	"github.com/Nitish151/stock-market-simulator/internal/domain"
)

// usersColumns is the list of columns for the users table.
// Column order must match the scan helpers below.
const usersColumns = `id, uuid, username, email, balance, created_at, updated_at`

// Repository handles user database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new user repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "users").Logger(),
	}
}

// Create inserts a new user record, assigning ID and UUID
func (r *Repository) Create(user *domain.User) error {
	if user.UUID == "" {
		user.UUID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (uuid, username, email, balance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		user.UUID,
		strings.TrimSpace(user.Username),
		nullString(user.Email),
		user.Balance.String(),
		now.Unix(),
		now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}
	user.ID = id

	r.log.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("User created")

	return nil
}

// GetByID retrieves a user by id
func (r *Repository) GetByID(id int64) (*domain.User, error) {
	return r.get(r.db, id)
}

// GetByIDTx retrieves a user within an explicit transactional scope
func (r *Repository) GetByIDTx(q database.Querier, id int64) (*domain.User, error) {
	return r.get(q, id)
}

func (r *Repository) get(q database.Querier, id int64) (*domain.User, error) {
	query := "SELECT " + usersColumns + " FROM users WHERE id = ?"

	user, err := scanUser(q.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByUsername retrieves a user by username
func (r *Repository) GetByUsername(username string) (*domain.User, error) {
	query := "SELECT " + usersColumns + " FROM users WHERE username = ?"

	user, err := scanUser(r.db.QueryRow(query, strings.TrimSpace(username)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}

// List returns all users ordered by creation
func (r *Repository) List() ([]domain.User, error) {
	query := "SELECT " + usersColumns + " FROM users ORDER BY id ASC"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUserFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// UpdateBalanceTx updates a user's balance within an explicit transactional
// scope, guarded against concurrent modification: the update applies only if
// the balance still holds its previously read value. A failed guard returns
// domain.ErrConflict and the enclosing transaction is expected to roll back.
func (r *Repository) UpdateBalanceTx(q database.Querier, id int64, from, to decimal.Decimal) error {
	query := `
		UPDATE users SET balance = ?, updated_at = ?
		WHERE id = ? AND balance = ?
	`

	result, err := q.Exec(query, to.String(), time.Now().UTC().Unix(), id, from.String())
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check balance update: %w", err)
	}
	if affected == 0 {
		return domain.ErrConflict
	}

	return nil
}

// scanUser scans a user from a single row
func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		user          domain.User
		email         sql.NullString
		balanceStr    string
		createdAtUnix int64
		updatedAtUnix int64
	)

	err := row.Scan(&user.ID, &user.UUID, &user.Username, &email, &balanceStr, &createdAtUnix, &updatedAtUnix)
	if err != nil {
		return nil, err
	}

	return buildUser(&user, email, balanceStr, createdAtUnix, updatedAtUnix)
}

// scanUserFromRows scans a user from a rows iterator
func scanUserFromRows(rows *sql.Rows) (*domain.User, error) {
	var (
		user          domain.User
		email         sql.NullString
		balanceStr    string
		createdAtUnix int64
		updatedAtUnix int64
	)

	err := rows.Scan(&user.ID, &user.UUID, &user.Username, &email, &balanceStr, &createdAtUnix, &updatedAtUnix)
	if err != nil {
		return nil, err
	}

	return buildUser(&user, email, balanceStr, createdAtUnix, updatedAtUnix)
}

func buildUser(user *domain.User, email sql.NullString, balanceStr string, createdAtUnix, updatedAtUnix int64) (*domain.User, error) {
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid balance %q for user %d: %w", balanceStr, user.ID, err)
	}

	user.Email = email.String
	user.Balance = balance
	user.CreatedAt = time.Unix(createdAtUnix, 0).UTC()
	user.UpdatedAt = time.Unix(updatedAtUnix, 0).UTC()

	return user, nil
}

// nullString converts an empty string to a NULL database value
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
