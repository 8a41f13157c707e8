// Package handlers provides HTTP handlers for order execution.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Nitish151/stock-market-simulator/internal/api"
	"github.com/Nitish151/stock-market-simulator/internal/domain"
	"github.com/Nitish151/stock-market-simulator/internal/modules/trading"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles trading HTTP requests
type Handler struct {
	tradingService *trading.Service
	log            zerolog.Logger
}

// NewHandler creates a new trading handler
func NewHandler(tradingService *trading.Service, log zerolog.Logger) *Handler {
	return &Handler{
		tradingService: tradingService,
		log:            log.With().Str("handler", "trading").Logger(),
	}
}

// OrderRequest represents a buy or sell order
type OrderRequest struct {
	UserID   int64  `json:"user_id"`
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
}

type orderFunc func(ctx context.Context, userID int64, symbol string, quantity int64) (*domain.Transaction, error)

// HandleBuy handles POST /api/transactions/buy
func (h *Handler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	h.executeOrder(w, r, h.tradingService.Buy, "stock bought successfully")
}

// HandleSell handles POST /api/transactions/sell
func (h *Handler) HandleSell(w http.ResponseWriter, r *http.Request) {
	h.executeOrder(w, r, h.tradingService.Sell, "stock sold successfully")
}

// HandleUserTransactions handles GET /api/users/{userID}/transactions
func (h *Handler) HandleUserTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		api.RespondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	summaries, err := h.tradingService.UserTransactions(userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("Failed to list transactions")
		api.RespondDomainError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, "transactions retrieved successfully", summaries)
}

func (h *Handler) executeOrder(w http.ResponseWriter, r *http.Request, execute orderFunc, message string) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		api.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Symbol = strings.TrimSpace(req.Symbol)
	if req.UserID <= 0 || req.Symbol == "" {
		api.RespondError(w, http.StatusBadRequest, "user_id and symbol are required")
		return
	}

	txn, err := execute(r.Context(), req.UserID, req.Symbol, req.Quantity)
	if err != nil {
		h.log.Warn().
			Err(err).
			Int64("user_id", req.UserID).
			Str("symbol", req.Symbol).
			Int64("quantity", req.Quantity).
			Msg("Order rejected")
		api.RespondDomainError(w, err)
		return
	}

	api.Respond(w, http.StatusCreated, message, txn)
}
