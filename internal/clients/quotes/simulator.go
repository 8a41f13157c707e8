package quotes

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Nitish151/stock-market-simulator/internal/domain"
)

// Compile-time interface check.
var _ Source = (*SimulatedSource)(nil)

// Annualized parameters of the simulated geometric random walk.
const (
	simDrift      = 0.05
	simVolatility = 0.30
)

// listing is a symbol in the simulated universe
type listing struct {
	name      string
	basePrice float64
}

// listings is the simulated trading universe. Symbols outside this table
// return ErrSymbolNotFound, mirroring an external source that does not know
// the symbol.
var listings = map[string]listing{
	"AAPL":  {"Apple Inc.", 185.00},
	"MSFT":  {"Microsoft Corporation", 410.00},
	"GOOGL": {"Alphabet Inc.", 140.00},
	"AMZN":  {"Amazon.com, Inc.", 175.00},
	"META":  {"Meta Platforms, Inc.", 480.00},
	"NVDA":  {"NVIDIA Corporation", 880.00},
	"TSLA":  {"Tesla, Inc.", 175.00},
	"NFLX":  {"Netflix, Inc.", 610.00},
	"AMD":   {"Advanced Micro Devices, Inc.", 160.00},
	"INTC":  {"Intel Corporation", 43.00},
	"JPM":   {"JPMorgan Chase & Co.", 195.00},
	"V":     {"Visa Inc.", 280.00},
	"KO":    {"The Coca-Cola Company", 60.00},
	"DIS":   {"The Walt Disney Company", 110.00},
	"XYZ":   {"XYZ Holdings", 50.00},
}

// symbolState tracks the evolving price of one simulated symbol
type symbolState struct {
	price     float64
	lastQuote time.Time
}

// SimulatedSource generates prices with a seeded geometric random walk over
// a built-in symbol universe. No external calls are made. A fixed seed makes
// the walk reproducible.
type SimulatedSource struct {
	mu     sync.Mutex
	state  map[string]*symbolState
	normal distuv.Normal
	now    func() time.Time // Injectable clock for tests
	log    zerolog.Logger
}

// NewSimulatedSource creates a simulated quote source. A seed of 0 picks a
// random seed.
func NewSimulatedSource(seed uint64, log zerolog.Logger) *SimulatedSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &SimulatedSource{
		state: make(map[string]*symbolState),
		normal: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   rand.NewPCG(seed, seed<<1|1),
		},
		now: time.Now,
		log: log.With().Str("client", "sim_quotes").Logger(),
	}
}

// Name returns "sim"
func (s *SimulatedSource) Name() string {
	return "sim"
}

// Quote advances the symbol's random walk to the current time and returns
// the resulting price, rounded to cents.
func (s *SimulatedSource) Quote(_ context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	l, ok := listings[symbol]
	if !ok {
		return nil, ErrSymbolNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	st, ok := s.state[symbol]
	if !ok {
		st = &symbolState{price: l.basePrice, lastQuote: now}
		s.state[symbol] = st
	} else {
		// Advance the walk by the elapsed time, with a one second floor so
		// back-to-back quotes still move.
		elapsed := now.Sub(st.lastQuote)
		if elapsed < time.Second {
			elapsed = time.Second
		}
		dt := elapsed.Hours() / (24 * 365)

		z := s.normal.Rand()
		st.price *= math.Exp((simDrift-0.5*simVolatility*simVolatility)*dt + simVolatility*math.Sqrt(dt)*z)
		if st.price < 0.01 {
			st.price = 0.01
		}
		st.lastQuote = now
	}

	price := decimal.NewFromFloat(st.price).Round(2)

	s.log.Debug().Str("symbol", symbol).Str("price", price.String()).Msg("Simulated quote")

	return &Quote{
		Symbol:      symbol,
		CompanyName: l.name,
		Price:       price,
		Currency:    domain.CurrencyUSD,
		AsOf:        now,
	}, nil
}
