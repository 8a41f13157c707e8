// Package api provides the response envelope shared by all HTTP handlers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Nitish151/stock-market-simulator/internal/domain"
)

// Response is the envelope returned by every endpoint: a timestamp, the
// HTTP status, a human-readable message, and the payload (omitted on error).
type Response struct {
	Timestamp time.Time   `json:"timestamp"`
	Status    int         `json:"status"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response envelope
func Respond(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Message:   message,
		Data:      data,
	})
}

// RespondError writes an error envelope without a payload
func RespondError(w http.ResponseWriter, status int, message string) {
	Respond(w, status, message, nil)
}

// StatusFromError maps domain errors to HTTP status codes
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrStockNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrNoPosition),
		errors.Is(err, domain.ErrInsufficientShares),
		errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondDomainError maps a workflow error to its status code and writes the
// error envelope. Internal errors are masked with a generic message.
func RespondDomainError(w http.ResponseWriter, err error) {
	status := StatusFromError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	RespondError(w, status, message)
}
