// Package finnhub is a minimal client for the Finnhub daily candle API.
package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aristath/quotebar/pkg/formulas"
	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://finnhub.io/api/v1"

var (
	// ErrDisabled is returned by every call when no API key is configured.
	ErrDisabled = errors.New("finnhub: no api key configured")
	// ErrNoData is returned when the API has no candles for the window.
	ErrNoData = errors.New("finnhub: no data")
)

// Client for finnhub.io
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Finnhub client. An empty apiKey disables it.
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "finnhub").Logger(),
	}
}

// WithBaseURL points the client at another server.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type candleResponse struct {
	Close     []float64 `json:"c"`
	Timestamp []int64   `json:"t"`
	Status    string    `json:"s"`
}

// DailyCloses returns daily closes in [from, to), oldest first.
func (c *Client) DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]formulas.PricePoint, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("resolution", "D")
	params.Set("from", strconv.FormatInt(from.Unix(), 10))
	params.Set("to", strconv.FormatInt(to.Unix()-1, 10))
	reqURL := c.baseURL + "/stock/candle?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Finnhub-Token", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result candleResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Status != "ok" || len(result.Close) == 0 {
		return nil, fmt.Errorf("candles for %s: %w", symbol, ErrNoData)
	}

	n := min(len(result.Close), len(result.Timestamp))
	points := make([]formulas.PricePoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, formulas.PricePoint{
			Date:  time.Unix(result.Timestamp[i], 0).UTC(),
			Close: result.Close[i],
		})
	}

	c.log.Debug().
		Str("symbol", symbol).
		Int("count", len(points)).
		Msg("Fetched candles")

	return points, nil
}
