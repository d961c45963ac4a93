// Package yahoo is a client for the unauthenticated Yahoo Finance chart, quote
// and fundamentals timeseries endpoints.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aristath/quotebar/internal/modules/market_hours"
	"github.com/rs/zerolog"
)

const (
	defaultChartURL      = "https://query1.finance.yahoo.com"
	defaultTimeseriesURL = "https://query2.finance.yahoo.com"
	userAgent            = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// ErrNoData is returned when a response decodes but carries nothing usable.
var ErrNoData = errors.New("yahoo: no data")

// SessionProvider reports the current trading state. Retries are skipped
// during extended hours.
type SessionProvider interface {
	CurrentState() market_hours.TradingState
}

// Options configures a Client. Zero values take defaults.
type Options struct {
	ChartURL      string
	TimeseriesURL string
	Timeout       time.Duration
	MaxAttempts   int
	Backoff       time.Duration
}

// Client is a Yahoo Finance API client
type Client struct {
	chartURL      string
	timeseriesURL string
	client        *http.Client
	session       SessionProvider
	maxAttempts   int
	backoff       time.Duration
	log           zerolog.Logger
}

// NewClient creates a new Yahoo Finance client. session may be nil, in which
// case retries always apply.
func NewClient(session SessionProvider, opts Options, log zerolog.Logger) *Client {
	if opts.ChartURL == "" {
		opts.ChartURL = defaultChartURL
	}
	if opts.TimeseriesURL == "" {
		opts.TimeseriesURL = defaultTimeseriesURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	return &Client{
		chartURL:      opts.ChartURL,
		timeseriesURL: opts.TimeseriesURL,
		client:        &http.Client{Timeout: opts.Timeout},
		session:       session,
		maxAttempts:   opts.MaxAttempts,
		backoff:       opts.Backoff,
		log:           log.With().Str("client", "yahoo").Logger(),
	}
}

type noRetryKey struct{}

// WithoutRetry marks ctx so requests made with it are attempted once.
// Background backfill uses it: a miss is simply retried on the next run.
func WithoutRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRetryKey{}, true)
}

func retryDisabled(ctx context.Context) bool {
	v, _ := ctx.Value(noRetryKey{}).(bool)
	return v
}

func (c *Client) attempts(ctx context.Context) int {
	if retryDisabled(ctx) {
		return 1
	}
	if c.session != nil && c.session.CurrentState().IsExtendedHours() {
		return 1
	}
	return c.maxAttempts
}

// statusError is a non-200 response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("yahoo returned status %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// getJSON fetches reqURL and decodes the body into out, retrying transport
// failures, 429 and 5xx responses with a fixed backoff.
func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
	attempts := c.attempts(ctx)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.fetch(ctx, reqURL, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == attempts || ctx.Err() != nil {
			break
		}

		c.log.Debug().
			Err(err).
			Int("attempt", attempt).
			Dur("wait", c.backoff).
			Msg("Request failed, retrying")

		t := time.NewTimer(c.backoff)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
	return lastErr
}

func (c *Client) fetch(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	var de *decodeError
	return !errors.As(err, &de)
}

// decodeError is never retried: the same payload would come back.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("failed to parse response: %v", e.err)
}

func (e *decodeError) Unwrap() error {
	return e.err
}
