package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/Nitish151/stock-market-simulator/internal/domain"
	"github.com/Nitish151/stock-market-simulator/internal/modules/stocks"
)

// PricesStreamHandler pushes quotes for every tracked stock over a websocket.
type PricesStreamHandler struct {
	stockService *stocks.Service
	log          zerolog.Logger
	interval     time.Duration
}

// NewPricesStreamHandler creates the price stream handler
func NewPricesStreamHandler(stockService *stocks.Service, log zerolog.Logger) *PricesStreamHandler {
	return &PricesStreamHandler{
		stockService: stockService,
		log:          log.With().Str("handler", "prices_stream").Logger(),
		interval:     5 * time.Second,
	}
}

// PriceUpdate is a single frame on the stream
type PriceUpdate struct {
	Timestamp time.Time      `json:"timestamp"`
	Stocks    []domain.Stock `json:"stocks"`
}

// ServeHTTP handles GET /api/stream/prices
func (h *PricesStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	ctx := r.Context()
	h.log.Info().Str("remote", r.RemoteAddr).Msg("Price stream connected")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		update, err := h.snapshot(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to build price snapshot")
		} else if err := wsjson.Write(ctx, conn, update); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				h.log.Info().Str("remote", r.RemoteAddr).Msg("Price stream closed by client")
			} else {
				h.log.Warn().Err(err).Msg("Price stream write failed")
			}
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}

		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case <-ticker.C:
		}
	}
}

func (h *PricesStreamHandler) snapshot(ctx context.Context) (*PriceUpdate, error) {
	symbols, err := h.stockService.AllTracked()
	if err != nil {
		return nil, err
	}

	update := &PriceUpdate{Timestamp: time.Now().UTC()}
	for _, symbol := range symbols {
		stock, err := h.stockService.Resolve(ctx, symbol)
		if err != nil {
			h.log.Warn().Err(err).Str("symbol", symbol).Msg("Skipping symbol in stream")
			continue
		}
		update.Stocks = append(update.Stocks, *stock)
	}
	return update, nil
}
