// Package market is the HTTP client for the internal market-data
// microservice: quotes, news, calendars, and macro indicators, plus
// cashtag enrichment of generated text.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/dutchbrat/hedgefund-agent/internal/config"
	"github.com/dutchbrat/hedgefund-agent/internal/metrics"
)

// Quote is a single price snapshot
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Currency      string  `json:"currency"`
}

// NewsItem is one story from the news endpoints
type NewsItem struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// CalendarEvent is an IPO or earnings calendar entry
type CalendarEvent struct {
	Symbol  string    `json:"symbol"`
	Company string    `json:"company"`
	Date    time.Time `json:"date"`
	Detail  string    `json:"detail"`
}

// MacroIndicator is a macro series reading (cpi, gdp, unemployment,
// fedfunds, pmi)
type MacroIndicator struct {
	Indicator string    `json:"indicator"`
	Value     float64   `json:"value"`
	Previous  float64   `json:"previous"`
	Period    string    `json:"period"`
	Updated   time.Time `json:"updated"`
}

// Client talks to the market-data microservice. Calls run through a
// circuit breaker and a small fixed retry loop; failures degrade to
// errors the callers treat as soft.
type Client struct {
	baseURL    string
	retries    int
	retryDelay time.Duration
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	cache      *PriceCache
	logger     zerolog.Logger
}

// NewClient creates a market-data client. cache may be nil.
func NewClient(cfg config.MarketConfig, cache *PriceCache) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "market-data",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		baseURL:    cfg.BaseURL,
		retries:    cfg.Retries,
		retryDelay: cfg.GetRetryDelay(),
		httpClient: &http.Client{
			Timeout: cfg.GetTimeout(),
		},
		breaker: breaker,
		cache:   cache,
		logger:  config.NewLogger("market"),
	}
}

// GetPrice fetches the current quote for one ticker
func (c *Client) GetPrice(ctx context.Context, ticker string) (*Quote, error) {
	if price, ok := c.cache.Get(ctx, ticker); ok {
		return price, nil
	}

	var quote Quote
	path := fmt.Sprintf("/api/v1/prices/%s", ticker)
	if err := c.getJSON(ctx, path, &quote); err != nil {
		return nil, fmt.Errorf("failed to fetch price for %s: %w", ticker, err)
	}

	c.cache.Set(ctx, ticker, &quote)
	return &quote, nil
}

type bulkPricesRequest struct {
	Tickers []string `json:"tickers"`
}

type bulkPricesResponse struct {
	Prices map[string]Quote `json:"prices"`
}

// GetBulkPrices fetches quotes for many tickers at once. The service
// returns what it can; missing tickers are simply absent from the map.
func (c *Client) GetBulkPrices(ctx context.Context, tickers []string) (map[string]Quote, error) {
	if len(tickers) == 0 {
		return map[string]Quote{}, nil
	}

	body, err := json.Marshal(bulkPricesRequest{Tickers: tickers})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bulk price request: %w", err)
	}

	var resp bulkPricesResponse
	if err := c.postJSON(ctx, "/api/v1/prices/bulk", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch bulk prices: %w", err)
	}

	for symbol := range resp.Prices {
		quote := resp.Prices[symbol]
		c.cache.Set(ctx, symbol, &quote)
	}

	c.logger.Debug().
		Int("requested", len(tickers)).
		Int("returned", len(resp.Prices)).
		Msg("Fetched bulk prices")

	return resp.Prices, nil
}

// GetCompanyNews fetches recent stories for one symbol
func (c *Client) GetCompanyNews(ctx context.Context, symbol string) ([]NewsItem, error) {
	var items []NewsItem
	path := fmt.Sprintf("/api/v1/news/company/%s", symbol)
	if err := c.getJSON(ctx, path, &items); err != nil {
		return nil, fmt.Errorf("failed to fetch company news for %s: %w", symbol, err)
	}
	return items, nil
}

// GetMarketNews fetches broad market stories
func (c *Client) GetMarketNews(ctx context.Context) ([]NewsItem, error) {
	var items []NewsItem
	if err := c.getJSON(ctx, "/api/v1/news/market", &items); err != nil {
		return nil, fmt.Errorf("failed to fetch market news: %w", err)
	}
	return items, nil
}

// GetCalendar fetches the ipo or earnings calendar
func (c *Client) GetCalendar(ctx context.Context, kind string) ([]CalendarEvent, error) {
	if kind != "ipo" && kind != "earnings" {
		return nil, fmt.Errorf("unknown calendar kind %q", kind)
	}

	var events []CalendarEvent
	path := fmt.Sprintf("/api/v1/calendar/%s", kind)
	if err := c.getJSON(ctx, path, &events); err != nil {
		return nil, fmt.Errorf("failed to fetch %s calendar: %w", kind, err)
	}
	return events, nil
}

// GetMacro fetches one macro indicator series
func (c *Client) GetMacro(ctx context.Context, indicator string) (*MacroIndicator, error) {
	var m MacroIndicator
	path := fmt.Sprintf("/api/v1/macro/%s", indicator)
	if err := c.getJSON(ctx, path, &m); err != nil {
		return nil, fmt.Errorf("failed to fetch macro indicator %s: %w", indicator, err)
	}
	return &m, nil
}

func (c *Client) getJSON(ctx context.Context, path string, target interface{}) error {
	return c.doWithRetry(ctx, http.MethodGet, path, nil, target)
}

func (c *Client) postJSON(ctx context.Context, path string, body []byte, target interface{}) error {
	return c.doWithRetry(ctx, http.MethodPost, path, body, target)
}

func (c *Client) doWithRetry(ctx context.Context, method, path string, body []byte, target interface{}) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordMarketAPICall(metricPath(path), float64(time.Since(start).Milliseconds()), err)
	}()

	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Warn().
				Err(lastErr).
				Int("attempt", attempt).
				Str("path", path).
				Msg("Retrying market-data request")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		_, err := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.do(ctx, method, path, body, target)
		})
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return lastErr
}

// metricPath trims symbol segments off a request path so metric labels
// stay bounded: /api/v1/prices/AAPL reports as /api/v1/prices.
func metricPath(path string) string {
	segments := strings.SplitN(path, "/", 5)
	if len(segments) > 4 {
		segments = segments[:4]
	}
	return strings.Join(segments, "/")
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, target interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("market-data service returned %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, target); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
