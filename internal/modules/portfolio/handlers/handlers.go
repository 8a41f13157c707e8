// Package handlers provides HTTP handlers for portfolio views.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/Nitish151/stock-market-simulator/internal/api"
	"github.com/Nitish151/stock-market-simulator/internal/modules/portfolio"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	portfolioService *portfolio.Service
	log              zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(portfolioService *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		portfolioService: portfolioService,
		log:              log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleSummary handles GET /api/users/{userID}/portfolio
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		api.RespondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	summary, err := h.portfolioService.Summary(userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("Failed to build portfolio summary")
		api.RespondDomainError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, "portfolio retrieved successfully", summary)
}
