// Package handlers provides HTTP handlers for user accounts.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Nitish151/stock-market-simulator/internal/api"
	"github.com/Nitish151/stock-market-simulator/internal/modules/users"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Handler handles user HTTP requests
type Handler struct {
	userService *users.Service
	log         zerolog.Logger
}

// NewHandler creates a new users handler
func NewHandler(userService *users.Service, log zerolog.Logger) *Handler {
	return &Handler{
		userService: userService,
		log:         log.With().Str("handler", "users").Logger(),
	}
}

// CreateUserRequest represents a request to open an account
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Balance  string `json:"balance,omitempty"`
}

// HandleCreate handles POST /api/users
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		api.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		api.RespondError(w, http.StatusBadRequest, "username is required")
		return
	}

	var balance *decimal.Decimal
	if req.Balance != "" {
		b, err := decimal.NewFromString(req.Balance)
		if err != nil || b.IsNegative() {
			api.RespondError(w, http.StatusBadRequest, "balance must be a non-negative amount")
			return
		}
		balance = &b
	}

	user, err := h.userService.Create(req.Username, req.Email, balance)
	if err != nil {
		h.log.Error().Err(err).Str("username", req.Username).Msg("Failed to create user")
		api.RespondDomainError(w, err)
		return
	}

	api.Respond(w, http.StatusCreated, "user created successfully", user)
}

// HandleGet handles GET /api/users/{userID}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		api.RespondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.userService.Get(userID)
	if err != nil {
		api.RespondDomainError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, "user retrieved successfully", user)
}

// HandleList handles GET /api/users
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.userService.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list users")
		api.RespondDomainError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, "users retrieved successfully", list)
}
