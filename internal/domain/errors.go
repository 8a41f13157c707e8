package domain

import "errors"

// Typed failures of the order workflow. Every one of these aborts the order
// before any write is committed; callers map them to transport status codes.
var (
	// ErrUserNotFound - user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrStockNotFound - symbol unknown to the quote source
	ErrStockNotFound = errors.New("stock not found")

	// ErrInsufficientFunds - balance cannot cover a buy
	ErrInsufficientFunds = errors.New("insufficient balance to buy stock")

	// ErrNoPosition - sell requested against a stock the user never bought
	ErrNoPosition = errors.New("user does not own this stock")

	// ErrInsufficientShares - sell larger than the held quantity
	ErrInsufficientShares = errors.New("insufficient shares to sell")

	// ErrInvalidQuantity - order quantity must be a positive integer
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrConflict - concurrent modification detected by an optimistic guard
	ErrConflict = errors.New("concurrent modification detected")
)
