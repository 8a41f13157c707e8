// Package handlers provides HTTP handlers for stock lookup and tracking.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/Nitish151/stock-market-simulator/internal/api"
	"github.com/Nitish151/stock-market-simulator/internal/modules/stocks"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles stock HTTP requests
type Handler struct {
	stockService *stocks.Service
	log          zerolog.Logger
}

// NewHandler creates a new stocks handler
func NewHandler(stockService *stocks.Service, log zerolog.Logger) *Handler {
	return &Handler{
		stockService: stockService,
		log:          log.With().Str("handler", "stocks").Logger(),
	}
}

// HandleGet handles GET /api/stocks/{symbol}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		api.RespondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	stock, err := h.stockService.Resolve(r.Context(), symbol)
	if err != nil {
		api.RespondDomainError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, "stock retrieved successfully", stock)
}

// HandleList handles GET /api/stocks
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.stockService.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list stocks")
		api.RespondDomainError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, "stocks retrieved successfully", list)
}

// HandleTrack handles POST /api/users/{userID}/tracked/{symbol}
func (h *Handler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	userID, symbol, ok := h.trackedParams(w, r)
	if !ok {
		return
	}

	stock, err := h.stockService.Track(r.Context(), userID, symbol)
	if err != nil {
		h.log.Warn().Err(err).Int64("user_id", userID).Str("symbol", symbol).Msg("Failed to track stock")
		api.RespondDomainError(w, err)
		return
	}

	api.Respond(w, http.StatusCreated, "stock tracked successfully", stock)
}

// HandleUntrack handles DELETE /api/users/{userID}/tracked/{symbol}
func (h *Handler) HandleUntrack(w http.ResponseWriter, r *http.Request) {
	userID, symbol, ok := h.trackedParams(w, r)
	if !ok {
		return
	}

	if err := h.stockService.Untrack(userID, symbol); err != nil {
		api.RespondDomainError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, "stock untracked successfully", nil)
}

// HandleUserTracked handles GET /api/users/{userID}/tracked
func (h *Handler) HandleUserTracked(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		api.RespondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	symbols, err := h.stockService.UserTracked(userID)
	if err != nil {
		api.RespondDomainError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, "tracked stocks retrieved successfully", symbols)
}

func (h *Handler) trackedParams(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		api.RespondError(w, http.StatusBadRequest, "invalid user id")
		return 0, "", false
	}
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		api.RespondError(w, http.StatusBadRequest, "symbol is required")
		return 0, "", false
	}
	return userID, symbol, true
}
