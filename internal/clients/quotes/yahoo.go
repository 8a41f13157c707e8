package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Nitish151/stock-market-simulator/internal/domain"
)

// Compile-time interface check.
var _ Source = (*YahooClient)(nil)

const defaultYahooBaseURL = "https://query2.finance.yahoo.com"

// cachedQuote is a cache entry with its fetch time
type cachedQuote struct {
	quote   *Quote
	fetched time.Time
}

// YahooClient fetches quotes from the Yahoo Finance v8 chart endpoint with a
// short in-memory TTL cache to avoid hammering the API.
type YahooClient struct {
	httpClient *http.Client
	baseURL    string
	ttl        time.Duration
	mu         sync.RWMutex
	cache      map[string]cachedQuote
	log        zerolog.Logger
}

// NewYahooClient creates a Yahoo Finance quote client
func NewYahooClient(log zerolog.Logger) *YahooClient {
	return &YahooClient{
		httpClient: &http.Client{Timeout: 8 * time.Second},
		baseURL:    defaultYahooBaseURL,
		ttl:        60 * time.Second,
		cache:      make(map[string]cachedQuote),
		log:        log.With().Str("client", "yahoo").Logger(),
	}
}

// Name returns "yahoo"
func (c *YahooClient) Name() string {
	return "yahoo"
}

// chartResponse mirrors the relevant parts of the Yahoo v8 chart payload
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				LongName           string  `json:"longName"`
				ShortName          string  `json:"shortName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// Quote fetches the current quote for a symbol, serving cached values while
// they are fresh.
func (c *YahooClient) Quote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrSymbolNotFound
	}

	c.mu.RLock()
	if entry, ok := c.cache[symbol]; ok && time.Since(entry.fetched) < c.ttl {
		c.mu.RUnlock()
		return entry.quote, nil
	}
	c.mu.RUnlock()

	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1m&range=1d", c.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build yahoo request: %w", err)
	}
	req.Header.Set("User-Agent", "stock-market-simulator/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrSymbolNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned HTTP %d for %s", resp.StatusCode, symbol)
	}

	var raw chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode yahoo response: %w", err)
	}

	if len(raw.Chart.Result) == 0 {
		return nil, ErrSymbolNotFound
	}

	meta := raw.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, fmt.Errorf("yahoo returned no usable price for %s", symbol)
	}

	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	if name == "" {
		name = symbol
	}

	currency := domain.Currency(strings.ToUpper(meta.Currency))
	if currency == "" {
		currency = domain.CurrencyUSD
	}

	asOf := time.Unix(meta.RegularMarketTime, 0).UTC()
	if meta.RegularMarketTime == 0 {
		asOf = time.Now().UTC()
	}

	quote := &Quote{
		Symbol:      symbol,
		CompanyName: name,
		Price:       decimal.NewFromFloat(meta.RegularMarketPrice).Round(2),
		Currency:    currency,
		AsOf:        asOf,
	}

	c.mu.Lock()
	c.cache[symbol] = cachedQuote{quote: quote, fetched: time.Now()}
	c.mu.Unlock()

	c.log.Debug().Str("symbol", symbol).Str("price", quote.Price.String()).Msg("Fetched quote")

	return quote, nil
}
