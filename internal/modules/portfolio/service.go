package portfolio

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Nitish151/stock-market-simulator/internal/domain"
)

// StockProvider supplies current stock records for valuation.
// Used to avoid a direct dependency on the stocks module.
type StockProvider interface {
	GetBySymbol(symbol string) (*domain.Stock, error)
}

// Holding is a position valued at the current market price
type Holding struct {
	Symbol       string          `json:"symbol"`
	CompanyName  string          `json:"company_name"`
	Quantity     int64           `json:"quantity"`
	AvgPrice     decimal.Decimal `json:"avg_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	MarketValue  decimal.Decimal `json:"market_value"`
	UnrealizedPL decimal.Decimal `json:"unrealized_pl"`
}

// Summary is a user's portfolio valued at current prices
type Summary struct {
	Holdings         []Holding       `json:"holdings"`
	TotalMarketValue decimal.Decimal `json:"total_market_value"`
}

// Service computes portfolio views from positions and current prices
type Service struct {
	positions *PositionRepository
	stocks    StockProvider
	log       zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(positions *PositionRepository, stocks StockProvider, log zerolog.Logger) *Service {
	return &Service{
		positions: positions,
		stocks:    stocks,
		log:       log.With().Str("service", "portfolio").Logger(),
	}
}

// Positions returns the raw position repository (for trading workflow wiring)
func (s *Service) Positions() *PositionRepository {
	return s.positions
}

// Summary values a user's open positions at current market prices.
// Closed positions (quantity zero) are omitted from the view.
func (s *Service) Summary(userID int64) (*Summary, error) {
	positions, err := s.positions.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Holdings:         make([]Holding, 0, len(positions)),
		TotalMarketValue: decimal.Zero,
	}

	for _, pos := range positions {
		if pos.Quantity == 0 {
			continue
		}

		holding := Holding{
			Symbol:   pos.Symbol,
			Quantity: pos.Quantity,
			AvgPrice: pos.AvgPrice,
		}

		stock, err := s.stocks.GetBySymbol(pos.Symbol)
		if err != nil {
			return nil, err
		}
		if stock != nil {
			holding.CompanyName = stock.CompanyName
			holding.CurrentPrice = stock.CurrentPrice
			holding.MarketValue = pos.MarketValue(stock.CurrentPrice)
			holding.UnrealizedPL = pos.UnrealizedPL(stock.CurrentPrice)
		} else {
			// Stock record missing from the market cache; value at cost
			holding.CurrentPrice = pos.AvgPrice
			holding.MarketValue = pos.MarketValue(pos.AvgPrice)
			holding.UnrealizedPL = decimal.Zero
		}

		summary.TotalMarketValue = summary.TotalMarketValue.Add(holding.MarketValue)
		summary.Holdings = append(summary.Holdings, holding)
	}

	return summary, nil
}
